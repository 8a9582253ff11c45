// Package sanitize strips unsafe markup from user-supplied rich text before
// it is stored. The policy is a fixed allowlist, so sanitizing already-clean
// HTML is a no-op.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func htmlPolicy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"p", "br", "strong", "em", "b", "i", "u",
			"ul", "ol", "li", "blockquote", "a", "img",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"span", "div", "table", "thead", "tbody", "tr", "th", "td",
			"sub", "sup",
		)
		p.AllowAttrs("href", "target", "rel").OnElements("a")
		p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		p.AllowAttrs("class", "style").Globally()
		p.AllowURLSchemes("http", "https", "mailto", "data", "image-ref")
		p.AllowRelativeURLs(true)
		policy = p
	})
	return policy
}

// HTML sanitizes a rich-text fragment. Empty input passes through untouched.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlPolicy().Sanitize(s)
}
