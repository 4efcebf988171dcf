package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/model"
)

// DefaultInstruction is the standing prompt for the weather assistant.
const DefaultInstruction = "You are a knowledgeable, friendly weather assistant. " +
	"You have access to a weather tool for current conditions, forecasts, recent history and air quality.\n\n" +
	"Instructions:\n" +
	"1. For current weather, forecasts or recent history: ALWAYS call the weather tool with the city name\n" +
	"2. Use conversational dates (Today, Tomorrow, Monday) not YYYY-MM-DD\n" +
	"3. Round temperatures to whole numbers\n" +
	"4. Reference previous conversation when relevant\n" +
	"5. If the user asks about air quality, pollution, or AQI, include air quality data\n" +
	"6. Use conversation context to understand what city the user is referring to\n\n" +
	"Be conversational, helpful and concise."

// DefaultMaxModelCalls bounds the generate/tool loop per turn. Each tool
// round costs one call, so five rounds is plenty for a single question.
const DefaultMaxModelCalls = 5

// Options configure an Assistant.
type Options struct {
	// Instruction is the system prompt. Defaults to DefaultInstruction.
	Instruction string
	// MaxModelCalls bounds model invocations per Respond call, 0 for
	// unlimited. Defaults to DefaultMaxModelCalls.
	MaxModelCalls int
	// Logger receives loop and tool events. Defaults to a no-op.
	Logger logging.Logger
}

// Assistant drives a language model through a bounded tool-calling loop to
// answer one conversational turn at a time. It holds no conversation state
// itself; callers pass the relevant history into Respond.
type Assistant struct {
	model       model.Model
	tools       map[string]Tool
	toolDefs    []model.ToolDefinition
	instruction string
	maxCalls    int
	logger      logging.Logger
}

// New creates an Assistant around m with the given tools.
func New(m model.Model, tools []Tool, optFns ...func(o *Options)) *Assistant {
	o := Options{
		Instruction:   DefaultInstruction,
		MaxModelCalls: DefaultMaxModelCalls,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	a := &Assistant{
		model:       m,
		tools:       make(map[string]Tool, len(tools)),
		instruction: o.Instruction,
		maxCalls:    o.MaxModelCalls,
		logger:      o.Logger,
	}
	for _, t := range tools {
		a.tools[t.Name()] = t
		a.toolDefs = append(a.toolDefs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return a
}

// Respond answers query in the context of history (prior turns, oldest
// first, not including query itself). It loops generate → execute tool
// calls → feed results back until the model produces plain text, and
// returns that text. Model errors and the call limit propagate to the
// caller; tool failures are surfaced to the model as error results instead.
func (a *Assistant) Respond(ctx context.Context, history []core.Message, query string) (string, error) {
	invocationID := uuid.NewString()
	limiter := newCallLimiter(a.maxCalls)

	messages := make([]model.Message, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, model.Message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, model.Message{Role: "user", Content: query})

	toolCtx := &ToolContext{
		Context:      ctx,
		InvocationID: invocationID,
		History:      history,
		Logger:       a.logger,
	}

	for {
		if err := limiter.increment(); err != nil {
			return "", fmt.Errorf("assistant: %w", err)
		}
		resp, err := a.model.Generate(ctx, model.Request{
			Instructions: a.instruction,
			Messages:     messages,
			Tools:        a.toolDefs,
		})
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		messages = append(messages, model.Message{
			Role:      "assistant",
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			messages = append(messages, model.Message{
				Role:       "tool",
				Content:    a.executeToolCall(toolCtx, call),
				ToolCallID: call.ID,
			})
		}
	}
}

// executeToolCall runs one requested call and renders its outcome as the
// text fed back to the model. Unknown tools and tool failures become error
// results so the model can recover in its own words.
func (a *Assistant) executeToolCall(toolCtx *ToolContext, call model.ToolCall) string {
	name := call.Function.Name
	tool, ok := a.tools[name]
	if !ok {
		a.logger.Warn("model requested unknown tool", "tool", name, "invocation_id", toolCtx.InvocationID)
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	args := map[string]any{}
	if len(call.Function.Arguments) > 0 {
		if err := json.Unmarshal(call.Function.Arguments, &args); err != nil {
			a.logger.Warn("tool arguments unparseable", "tool", name, "error", err)
			return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
		}
	}

	a.logger.Debug("executing tool", "tool", name, "invocation_id", toolCtx.InvocationID)
	result, err := tool.Call(toolCtx, args)
	if err != nil {
		a.logger.Error("tool call failed", "tool", name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	switch v := result.(type) {
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
