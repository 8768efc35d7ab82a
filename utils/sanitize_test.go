package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`<p onclick="evil()">hi <b>there</b></p><script>alert(1)</script>`)
	assert.Equal(t, "<p>hi <b>there</b></p>", out)
}

func TestSanitizeKeepsLinksAndImages(t *testing.T) {
	out := Sanitize(`<a href="https://example.com">x</a><img src="/static/uploads/a.png">`)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `src="/static/uploads/a.png"`)
	assert.NotContains(t, Sanitize(`<a href="javascript:alert(1)">x</a>`), "javascript:")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a b", PlainText("<p>a</p><p>b</p>"))
	assert.Equal(t, "line one line two", PlainText("line one<br>line two"))
	assert.Equal(t, "Title body text", PlainText("<h1>Title</h1>\n\n  <div>body <em>text</em></div>"))
	assert.Equal(t, "plain", PlainText("plain"))
	assert.Equal(t, "", PlainText(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10, "..."))
	assert.Equal(t, "hello...", Truncate("hello world", 8, "..."))
	// Trailing spaces before the ellipsis are trimmed.
	assert.Equal(t, "hello...", Truncate("hello world", 9, "..."))
	assert.Equal(t, "hello worl", Truncate("hello world", 10, ""))
	assert.Equal(t, "ab", Truncate("abcdef", 2, "..."))

	long := strings.Repeat("é", 200)
	out := Truncate(long, 160, "...")
	assert.Equal(t, 160, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "..."))
}
