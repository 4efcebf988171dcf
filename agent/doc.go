// Package agent implements the tool-calling weather assistant: the loop
// that feeds conversation history to a language model, executes the tool
// calls it requests and returns its final reply.
//
// The package has two halves. Assistant owns the generate/execute loop,
// bounded by a model-call limiter so a confused model cannot spin forever.
// The tools supply the grounding: WeatherTool assembles the composite
// report (current conditions, recent history, five-day outlook and, when
// asked for, air quality) for a city, and KnowledgeTool looks up conceptual
// background from a knowledge base when a deployment runs one.
package agent
