package agent

import (
	"context"
	"fmt"
	"strings"
)

// KnowledgeEntry is one curated article from the weather knowledge base.
type KnowledgeEntry struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// KnowledgeSearcher retrieves background articles relevant to a query.
// Implementations wrap whatever search backend the deployment runs; an
// empty result set is a normal outcome, not an error.
type KnowledgeSearcher interface {
	SearchWeatherKnowledge(ctx context.Context, query string, limit int) ([]KnowledgeEntry, error)
}

// KnowledgeToolOptions configure a KnowledgeTool.
type KnowledgeToolOptions struct {
	// Limit caps how many entries one lookup returns. Defaults to 3.
	Limit int
}

// KnowledgeTool answers conceptual weather questions (how rain forms,
// storm safety, seasonal patterns) from a curated knowledge base. Backend
// failures and empty results both yield an empty result so the model
// falls back to its own knowledge instead of surfacing an error.
type KnowledgeTool struct {
	searcher KnowledgeSearcher
	limit    int
}

var _ Tool = (*KnowledgeTool)(nil)

// NewKnowledgeTool creates a KnowledgeTool backed by searcher.
func NewKnowledgeTool(searcher KnowledgeSearcher, optFns ...func(o *KnowledgeToolOptions)) *KnowledgeTool {
	o := KnowledgeToolOptions{Limit: 3}
	for _, fn := range optFns {
		fn(&o)
	}
	return &KnowledgeTool{searcher: searcher, limit: o.Limit}
}

// Name implements Tool.
func (t *KnowledgeTool) Name() string { return "search_weather_knowledge" }

// Description implements Tool.
func (t *KnowledgeTool) Description() string {
	return "Search the weather knowledge base for explanations of weather " +
		"phenomena, safety advice, seasonal patterns and forecasting " +
		"concepts. Use this for conceptual questions rather than current " +
		"conditions or forecasts."
}

// Parameters implements Tool.
func (t *KnowledgeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The conceptual weather question to look up",
			},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool.
func (t *KnowledgeTool) Call(toolCtx *ToolContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", nil
	}
	if t.searcher == nil {
		return "", nil
	}

	entries, err := t.searcher.SearchWeatherKnowledge(toolCtx.Context, query, t.limit)
	if err != nil {
		if toolCtx.Logger != nil {
			toolCtx.Logger.Warn("knowledge search failed", "query", query, "error", err)
		}
		return "", nil
	}
	if len(entries) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("\n=== WEATHER KNOWLEDGE ===\n")
	for i, entry := range entries {
		title := entry.Title
		if title == "" {
			title = "Weather Information"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   %s\n", entry.Content)
		if entry.Category != "" {
			fmt.Fprintf(&b, "   Category: %s\n", entry.Category)
		}
		b.WriteString("\n")
	}
	b.WriteString("=== END WEATHER KNOWLEDGE ===\n")
	return b.String(), nil
}
