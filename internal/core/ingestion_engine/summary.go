package ingestion_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

const summarySystemPrompt = `You are a senior business analyst. You write crisp executive summaries of uploaded data files. Respond ONLY with a JSON object of the form {"headline": "...", "bullets": ["...", "...", "..."]} containing a one-line headline and exactly 3 bullet insights. No markdown, no prose outside the JSON.`

// GenerateExecutiveSummary asks the LLM for a headline plus three bullet
// insights over a small sample of the file's content. Model output is
// free-form, so the JSON is pulled out defensively; if no JSON can be
// recovered the raw response becomes a single bullet.
func GenerateExecutiveSummary(ctx context.Context, llm core.LLMProvider, filename string, sample []string) (*models.ExecutiveSummary, error) {
	if llm == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("no content sample for %s", filename)
	}

	userPrompt := fmt.Sprintf("File: %s\n\nContent sample:\n%s", filename, strings.Join(sample, "\n"))

	resp, err := llm.Generate(ctx, summarySystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("summary generation: %w", err)
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return nil, fmt.Errorf("summary generation: empty response")
	}

	var summary models.ExecutiveSummary
	if payload := extractJSON(resp); payload != "" {
		if err := json.Unmarshal([]byte(payload), &summary); err == nil && len(summary.Bullets) > 0 {
			if summary.Headline == "" {
				summary.Headline = "Summary"
			}
			return &summary, nil
		}
	}

	// Model ignored the format. Keep the text rather than dropping the work.
	return &models.ExecutiveSummary{
		Headline: "Summary",
		Bullets:  []string{resp},
	}, nil
}

// extractJSON pulls the first JSON object out of a model response, tolerating
// markdown code fences and leading chatter. Returns "" when no object is
// present.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
