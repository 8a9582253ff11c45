package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// textSegmentPattern matches text between HTML tags. Reformulation rewrites
// only these segments so that tags, attributes and embedded image references
// survive untouched.
var textSegmentPattern = regexp.MustCompile(`>([^<>]+)<`)

var segmentLabelPattern = regexp.MustCompile(`(?m)^\[TEXT_(\d+)\]:\s*(.*)$`)

// ReformulateBriefing rewrites the prose of an HTML briefing entry into
// formal reporting style while preserving the markup verbatim. Each text
// segment is sent with a numbered label and spliced back by label.
func (c *Client) ReformulateBriefing(ctx context.Context, html string) (string, error) {
	matches := textSegmentPattern.FindAllStringSubmatchIndex(html, -1)

	type segment struct {
		start, end int
		text       string
	}
	var segments []segment
	for _, m := range matches {
		text := html[m[2]:m[3]]
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, segment{start: m[2], end: m[3], text: text})
	}
	if len(segments) == 0 {
		// Plain text with no markup: reformulate the whole thing.
		if strings.TrimSpace(html) == "" {
			return html, nil
		}
		return c.complete(ctx, reformulateSystemPrompt, html, 0.4, 1500)
	}

	var sb strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&sb, "[TEXT_%d]: %s\n", i, strings.TrimSpace(seg.text))
	}

	system := reformulateSystemPrompt + `
The input is a list of numbered text segments from one document.
Rewrite each segment and respond with one line per segment in the exact form:
[TEXT_N]: rewritten text
Keep every segment on its own line, keep the numbering, and do not add,
merge, drop or reorder segments.`

	content, err := c.complete(ctx, system, sb.String(), 0.4, 2000)
	if err != nil {
		return "", err
	}

	rewritten := make(map[int]string)
	for _, m := range segmentLabelPattern.FindAllStringSubmatch(content, -1) {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		rewritten[n] = m[2]
	}

	// Splice replacements back from the end so offsets stay valid. Leading
	// and trailing whitespace of each segment is kept so spacing around
	// inline tags survives.
	out := html
	for i := len(segments) - 1; i >= 0; i-- {
		text, ok := rewritten[i]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		seg := segments[i]
		trimmed := strings.TrimSpace(seg.text)
		idx := strings.Index(seg.text, trimmed)
		lead, trail := seg.text[:idx], seg.text[idx+len(trimmed):]
		out = out[:seg.start] + lead + strings.TrimSpace(text) + trail + out[seg.end:]
	}
	return out, nil
}

const reformulateSystemPrompt = `You are an editor for UN Secretary-General morning briefings.
Rewrite text into concise, formal UN reporting style: past tense, neutral tone,
no editorializing, no first person. Preserve all facts, figures, names and
dates exactly. Never add information.`

// metaResponsePattern catches answers where the model talks about the task
// instead of doing it.
var metaResponsePattern = regexp.MustCompile(`(?i)^(i\s|as an ai|sure[,!]|here('s| is)|certainly|the (rewritten|reformulated))`)

// ReformulateSelection rewrites only the selected passage, with the
// surrounding text supplied as context so the result splices in cleanly.
func (c *Client) ReformulateSelection(ctx context.Context, before, selected, after string) (string, error) {
	if strings.TrimSpace(selected) == "" {
		return selected, nil
	}

	maxTokens := 800
	if n := len(selected) / 2; n > maxTokens {
		maxTokens = n
	}

	user := fmt.Sprintf(`Text before the selection:
%s

Selected text to rewrite:
%s

Text after the selection:
%s

Rewrite ONLY the selected text so it reads naturally between the surrounding
text. Respond with the rewritten selection and nothing else.`, before, selected, after)

	content, err := c.complete(ctx, reformulateSystemPrompt, user, 0.7, maxTokens)
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(stripCodeFence(content))
	if content == "" || metaResponsePattern.MatchString(content) {
		return selected, nil
	}
	return content, nil
}
