package ai

import (
	"context"
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Summarize condenses an entry's HTML body into short bullet lines for the
// daily digest. Markup is stripped before the call.
func (c *Client) Summarize(ctx context.Context, headline, entryHTML string) ([]string, error) {
	plain := strings.TrimSpace(htmlTagPattern.ReplaceAllString(entryHTML, " "))
	if plain == "" {
		return nil, nil
	}

	system := `You summarize UN morning briefing entries.
Respond with 2-3 bullet lines, each starting with "- ", each at most 25 words,
formal UN reporting style. No preamble, no markdown beyond the leading dash.`

	user := "Headline: " + headline + "\n\n" + plain
	content, err := c.complete(ctx, system, user, 0.3, 400)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "• ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
