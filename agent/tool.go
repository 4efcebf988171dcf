package agent

import (
	"context"
	"fmt"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
)

// Tool defines a callable capability the assistant can expose to the model.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with the arguments the model supplied. The
	// returned value is serialized and fed back to the model as the tool
	// result; an error becomes an error result rather than aborting the turn.
	Call(toolCtx *ToolContext, args map[string]any) (any, error)
}

// ToolContext carries per-invocation state into tool calls: the request
// context, the conversation so far and a logger. Tools use the history to
// resolve references like "there" or to detect standing requests.
type ToolContext struct {
	Context      context.Context
	InvocationID string
	History      []core.Message
	Logger       logging.Logger
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
