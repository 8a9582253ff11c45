package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

// AutoFillResult holds the field suggestions extracted from pasted source
// material. Empty fields mean the model could not determine a value.
type AutoFillResult struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Region     string   `json:"region"`
	Country    []string `json:"country"`
	Headline   string   `json:"headline"`
	Entry      string   `json:"entry"`
	SourceName string   `json:"sourceName"`
	SourceDate string   `json:"sourceDate"`
}

type autoFillRaw struct {
	Category   string          `json:"category"`
	Priority   string          `json:"priority"`
	Region     string          `json:"region"`
	Country    json.RawMessage `json:"country"`
	Headline   string          `json:"headline"`
	Entry      string          `json:"entry"`
	SourceName string          `json:"sourceName"`
	SourceDate string          `json:"sourceDate"`
}

// AutoFill extracts structured briefing fields from an article or cable
// pasted by the author. Source text beyond 100KB is truncated by complete.
func (c *Client) AutoFill(ctx context.Context, sourceText string) (*AutoFillResult, error) {
	system := fmt.Sprintf(`You are an assistant that extracts structured fields for a UN morning briefing entry from source material.
Respond with a single JSON object and nothing else. Fields:
- "category": one of: %s. Empty string if unclear.
- "priority": "%s" for matters requiring the Secretary-General's attention, otherwise "%s".
- "region": one of: %s. Empty string if unclear.
- "country": an array of country names mentioned as the subject. Use names from: %s where they match; otherwise use the name as written. Empty array if none.
- "headline": a concise headline of at most 12 words.
- "entry": a 2-4 sentence summary in formal UN reporting style, past tense, no markdown.
- "sourceName": the publication or originator, empty string if unknown.
- "sourceDate": the publication date as YYYY-MM-DD, empty string if unknown.
Do not invent facts that are not in the source text.`,
		strings.Join(model.Categories, ", "),
		model.PrioritySGAttention, model.PrioritySituationalAwareness,
		strings.Join(model.Regions, ", "),
		strings.Join(model.Countries, ", "))

	content, err := c.complete(ctx, system, sourceText, 0.2, 1200)
	if err != nil {
		return nil, err
	}

	var raw autoFillRaw
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse auto-fill response: %w", err)
	}

	result := &AutoFillResult{
		Category:   raw.Category,
		Priority:   raw.Priority,
		Region:     raw.Region,
		Headline:   raw.Headline,
		Entry:      raw.Entry,
		SourceName: raw.SourceName,
		SourceDate: raw.SourceDate,
	}
	// country arrives as a string or an array depending on model mood
	if len(raw.Country) > 0 {
		var many []string
		if err := json.Unmarshal(raw.Country, &many); err == nil {
			result.Country = many
		} else {
			var single string
			if err := json.Unmarshal(raw.Country, &single); err == nil && single != "" {
				result.Country = []string{single}
			}
		}
	}
	return result, nil
}
