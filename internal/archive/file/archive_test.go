package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dailydigest/digestd/internal/digest"
)

func testNote(id string) digest.ReplyNote {
	return digest.ReplyNote{
		ID:         id,
		URL:        "https://example.com/" + id,
		Title:      "Article " + id,
		Note:       "my notes for " + id,
		ReceivedAt: time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
	}
}

func TestAppendAndHas(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := New(filepath.Join(t.TempDir(), "compiled_summaries.md"))
	require.NoError(t, err)

	ok, err := a.Has(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, a.Append(ctx, testNote("abc")))

	ok, err = a.Has(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAppendWritesMarkdownSection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "compiled_summaries.md")
	a, err := New(path)
	require.NoError(t, err)

	require.NoError(t, a.Append(ctx, testNote("abc")))
	require.NoError(t, a.Append(ctx, testNote("def")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "## Article abc")
	require.Contains(t, content, "https://example.com/abc")
	require.Contains(t, content, "my notes for def")
}

func TestAppendSameIDIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "compiled_summaries.md")
	a, err := New(path)
	require.NoError(t, err)

	require.NoError(t, a.Append(ctx, testNote("abc")))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, a.Append(ctx, testNote("abc")))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
