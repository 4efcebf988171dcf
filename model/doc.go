// Package model defines the provider-agnostic abstractions for the language
// model the assistant delegates its reasoning to.
//
// Core goals:
//   - Single-shot generation behind a minimal interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests and keyless development (Mock)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the assistant remains decoupled from vendor SDKs.
package model
