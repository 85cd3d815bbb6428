package mail

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dailydigest/digestd/internal/digest"
)

func TestRenderPlain(t *testing.T) {
	t.Parallel()

	msg := digest.Message{
		Title: "A Fine Article",
		URL:   "https://example.com/a",
		Body:  "Summary text.",
	}
	got := renderPlain(msg, "June 1, 2025")
	require.Contains(t, got, "Your Daily Reading - June 1, 2025")
	require.Contains(t, got, "A Fine Article")
	require.Contains(t, got, "Summary text.")
	require.Contains(t, got, "https://example.com/a")
}

func TestRenderPlainWithoutURL(t *testing.T) {
	t.Parallel()

	got := renderPlain(digest.Message{Body: "Bring an umbrella."}, "June 1, 2025")
	require.NotContains(t, got, "Read the full article")
	require.Contains(t, got, "Bring an umbrella.")
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	t.Parallel()

	msg := digest.Message{
		Title: "Tags <b>stay</b> text",
		URL:   "https://example.com/a",
		Body:  "Line one\nLine two",
	}
	got := renderHTML(msg, "June 1, 2025")
	require.Contains(t, got, "&lt;b&gt;stay&lt;/b&gt;")
	require.Contains(t, got, `href="https://example.com/a"`)
	require.Contains(t, got, "June 1, 2025")
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}
