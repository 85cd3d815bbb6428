package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Avoiding Edtech Pitfalls</title></head>
<body>
<article>
<h1>Avoiding Edtech Pitfalls</h1>
<p>Artificial intelligence holds promise for education, but only if we learn from past technology implementation failures and resist the urge to deploy tools without evidence.</p>
<p>This article examines how to avoid repeating mistakes made with previous educational technology initiatives, drawing on two decades of classroom studies.</p>
<p>The conclusion is that careful, classroom-led rollouts outperform top-down mandates in every measured dimension of student outcomes.</p>
</article>
</body>
</html>`

func TestExtractReadableArticle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	e := New(Config{UserAgent: "digestd-test"}, zap.NewNop())
	art, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, art.Title, "Edtech Pitfalls")
	require.Contains(t, art.Text, "past technology implementation failures")
	require.Greater(t, len(art.Text), 100)
}

func TestExtractNetworkErrorWrapsTaxonomy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := New(Config{}, zap.NewNop())
	_, err := e.Extract(context.Background(), srv.URL)
	require.ErrorIs(t, err, digest.ErrExtractionFailed)
}

type stubRenderer struct {
	html   string
	called bool
}

func (r *stubRenderer) Render(context.Context, string) (string, error) {
	r.called = true
	return r.html, nil
}

func TestExtractPromotesSPAShell(t *testing.T) {
	t.Parallel()

	shell := `<html><body><div id="root"></div><script>window.app()</script></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(shell))
	}))
	defer srv.Close()

	rendered := &stubRenderer{html: articleHTML}
	e := New(Config{}, zap.NewNop(), WithRenderer(rendered))

	art, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, rendered.called, "expected headless promotion")
	require.Contains(t, art.Text, "classroom-led rollouts")
}

func TestFallbackTitleUsesHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		body := "<html><body>" + strings.Repeat("<p>Paragraph with enough text to keep around for the digest.</p>", 20) + "</body></html>"
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	e := New(Config{}, zap.NewNop())
	art, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotEmpty(t, art.Title)
	require.NotEmpty(t, art.Text)
}

func TestDetectorRules(t *testing.T) {
	t.Parallel()

	d := newDetector(0)

	require.True(t, d.shouldPromote(fetchResult{StatusCode: 200}), "empty body promotes")
	require.False(t, d.shouldPromote(fetchResult{StatusCode: 500, Body: nil}), "non-200 never promotes")
	require.True(t, d.shouldPromote(fetchResult{
		StatusCode: 200,
		Body:       []byte(`<html><body><div data-reactroot></div></body></html>`),
	}), "SPA marker promotes")

	scriptHeavy := `<html><script>` + strings.Repeat("x", 600) + `</script><body>hi</body></html>`
	require.True(t, d.shouldPromote(fetchResult{StatusCode: 200, Body: []byte(scriptHeavy)}),
		"script-dominated short body promotes")

	prose := `<html><body>` + strings.Repeat("<p>plain words here</p>", 200) + `</body></html>`
	require.False(t, d.shouldPromote(fetchResult{StatusCode: 200, Body: []byte(prose)}),
		"long prose does not promote")
}
