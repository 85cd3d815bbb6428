package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dailydigest/digestd/internal/digest"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarizeParsesCompletion(t *testing.T) {
	t.Parallel()

	var gotPrompt string
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		gotPrompt = last["content"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "A tidy summary."}, "finish_reason": "stop"}]
		}`))
	})

	s, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	summary, err := s.Summarize(context.Background(), "Some Title", "Some article text.")
	require.NoError(t, err)
	require.Equal(t, "A tidy summary.", summary)
	require.Contains(t, gotPrompt, "Some Title")
	require.Contains(t, gotPrompt, "daily reading digest email")
}

func TestSummarizeTruncatesLongInput(t *testing.T) {
	t.Parallel()

	var promptLen int
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		promptLen = len(last["content"].(string))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	})

	s, err := New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxChars: 500})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "T", strings.Repeat("a", 10000))
	require.NoError(t, err)
	require.Less(t, promptLen, 1200)
}

func TestSummarizeAPIErrorWrapsTaxonomy(t *testing.T) {
	t.Parallel()

	srv := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	s, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "T", "text")
	require.ErrorIs(t, err, digest.ErrSummarizationFailed)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}
