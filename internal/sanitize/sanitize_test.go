package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLStripsScripts(t *testing.T) {
	out := HTML(`<p>hello</p><script>alert(1)</script>`)
	assert.Equal(t, "<p>hello</p>", out)
}

func TestHTMLStripsEventHandlers(t *testing.T) {
	out := HTML(`<p onclick="steal()">text</p>`)
	assert.Equal(t, "<p>text</p>", out)
}

func TestHTMLStripsImgEventHandler(t *testing.T) {
	out := HTML(`<img src=x onerror=alert(1)>`)
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "<img")
	assert.Contains(t, out, `src="x"`)
}

func TestHTMLKeepsAllowedMarkup(t *testing.T) {
	in := `<p><strong>Bold</strong> and <em>italic</em></p><ul><li>one</li></ul>`
	assert.Equal(t, in, HTML(in))
}

func TestHTMLKeepsLinksAndImages(t *testing.T) {
	in := `<a href="https://un.org" target="_blank" rel="noopener">UN</a>`
	assert.Equal(t, in, HTML(in))

	img := `<img src="image-ref://abc" alt="chart" width="400"/>`
	out := HTML(img)
	assert.Contains(t, out, `src="image-ref://abc"`)
}

func TestHTMLRejectsJavascriptURL(t *testing.T) {
	out := HTML(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestHTMLIdempotent(t *testing.T) {
	in := `<p>dirty <script>x</script> <b>text</b></p>`
	first := HTML(in)
	assert.Equal(t, first, HTML(first))
}

func TestHTMLEmptyInput(t *testing.T) {
	assert.Equal(t, "", HTML(""))
}
