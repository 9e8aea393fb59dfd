package comments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

func TestMemoryStoreNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()

	_, err := store.Add(ctx, "emoji-picker", Comment{Name: "Ada", Message: "first"})
	require.NoError(t, err)
	_, err = store.Add(ctx, "emoji-picker", Comment{Name: "Grace", Message: "second"})
	require.NoError(t, err)
	_, err = store.Add(ctx, "other", Comment{Name: "Linus", Message: "elsewhere"})
	require.NoError(t, err)

	list, err := store.List(ctx, "emoji-picker")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "second", list[0].Message)
	require.NotEmpty(t, list[0].ID)

	_, err = store.Add(ctx, "emoji-picker", Comment{Name: " ", Message: "x"})
	require.ErrorIs(t, err, ErrInvalidComment)
	_, err = store.Add(ctx, "emoji-picker", Comment{Name: "Ada", Message: strings.Repeat("x", maxMessageLength+1)})
	require.ErrorIs(t, err, ErrInvalidComment)
}

func TestThreadID(t *testing.T) {
	require.Equal(t, "emoji-picker", ThreadID("/challenges/emoji-picker.html"))
	require.Equal(t, "emoji-picker", ThreadID("emoji-picker"))
	require.Equal(t, DefaultThread, ThreadID("/"))
	require.Equal(t, DefaultThread, ThreadID(""))
}

func TestAvatarColor(t *testing.T) {
	require.Equal(t, "bg-red-500", AvatarColor("Grace"))
	require.Equal(t, "bg-purple-500", AvatarColor("Ada"))
	require.Equal(t, "bg-red-500", AvatarColor(""))
}

func TestThreadRendering(t *testing.T) {
	html, err := markup.String(context.Background(), Thread(nil))
	require.NoError(t, err)
	require.Contains(t, html, `id="empty-msg"`)

	html, err = markup.String(context.Background(), Thread([]Comment{
		{ID: "1", Name: "ada", Message: "<b>hi</b>", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Zero(t, doc.Find("#empty-msg").Length())
	require.Equal(t, "A", doc.Find("[data-comment-avatar]").Text())
	require.Equal(t, "<b>hi</b>", doc.Find("[data-comment-id] p").Text())
	require.Equal(t, "Mar 1, 2024", doc.Find("time").Text())
}
