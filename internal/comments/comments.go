// Package comments stores the discussion threads attached to challenge pages.
package comments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/firestore"
	"github.com/a-h/templ"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/format"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

const (
	// DefaultThread is used when a page has no usable slug.
	DefaultThread = "general-discussion"

	commentsCollection = "comments"
	entriesCollection  = "entries"
	maxNameLength      = 60
	maxMessageLength   = 2000
	listLimit          = 100
)

// ErrInvalidComment is returned for comments without a name or message.
var ErrInvalidComment = errors.New("comments: name and message are required")

// Comment is one entry in a thread.
type Comment struct {
	ID      string    `firestore:"-"`
	Name    string    `firestore:"name"`
	Message string    `firestore:"message"`
	Date    time.Time `firestore:"date"`
}

// Store persists threads.
type Store interface {
	List(ctx context.Context, thread string) ([]Comment, error)
	Add(ctx context.Context, thread string, c Comment) (Comment, error)
}

// Normalize validates c and trims its fields.
func Normalize(c Comment) (Comment, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Message = strings.TrimSpace(c.Message)
	if c.Name == "" || c.Message == "" {
		return Comment{}, ErrInvalidComment
	}
	if utf8.RuneCountInString(c.Name) > maxNameLength || utf8.RuneCountInString(c.Message) > maxMessageLength {
		return Comment{}, fmt.Errorf("%w: too long", ErrInvalidComment)
	}
	return c, nil
}

// ThreadID derives the thread for a page path, e.g. "/challenges/emoji-picker.html" → "emoji-picker".
func ThreadID(pagePath string) string {
	p := strings.TrimRight(strings.TrimSpace(pagePath), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.TrimSuffix(p, ".html")
	if p == "" {
		return DefaultThread
	}
	return p
}

// FirestoreStore keeps threads at comments/{thread}/entries.
type FirestoreStore struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreStore wraps client.
func NewFirestoreStore(client *firestore.Client) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("comments store requires firestore client")
	}
	return &FirestoreStore{client: client, now: time.Now}, nil
}

func (s *FirestoreStore) entries(thread string) *firestore.CollectionRef {
	return s.client.Collection(commentsCollection).Doc(thread).Collection(entriesCollection)
}

// List returns the newest comments first.
func (s *FirestoreStore) List(ctx context.Context, thread string) ([]Comment, error) {
	iter := s.entries(thread).OrderBy("date", firestore.Desc).Limit(listLimit).Documents(ctx)
	defer iter.Stop()

	var out []Comment
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("comments.list %s: %w", thread, err)
		}
		var c Comment
		if err := snap.DataTo(&c); err != nil {
			continue
		}
		c.ID = snap.Ref.ID
		out = append(out, c)
	}
	return out, nil
}

// Add stores c with a new id and the current time.
func (s *FirestoreStore) Add(ctx context.Context, thread string, c Comment) (Comment, error) {
	c, err := Normalize(c)
	if err != nil {
		return Comment{}, err
	}
	c.ID = uuid.NewString()
	c.Date = s.now().UTC()
	if _, err := s.entries(thread).Doc(c.ID).Create(ctx, c); err != nil {
		return Comment{}, fmt.Errorf("comments.add %s: %w", thread, err)
	}
	return c, nil
}

// MemoryStore keeps threads in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string][]Comment
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]Comment), now: time.Now}
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, thread string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Comment, len(m.threads[thread]))
	copy(out, m.threads[thread])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Add implements Store.
func (m *MemoryStore) Add(_ context.Context, thread string, c Comment) (Comment, error) {
	c, err := Normalize(c)
	if err != nil {
		return Comment{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.Date = m.now().UTC()
	m.threads[thread] = append(m.threads[thread], c)
	return c, nil
}

var avatarColors = []string{"bg-red-500", "bg-blue-500", "bg-green-500", "bg-purple-500", "bg-orange-500"}

// AvatarColor picks the avatar background for a commenter.
func AvatarColor(name string) string {
	return avatarColors[utf8.RuneCountInString(name)%len(avatarColors)]
}

// Thread renders a comment list, newest first as given.
func Thread(list []Comment) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<div id="comments-list">`)
		if len(list) == 0 {
			hw.Raw(`<p id="empty-msg" class="text-gray-500 text-sm">Be the first to comment!</p>`)
		}
		for _, c := range list {
			hw.Raw(`<div class="flex gap-4 p-4 bg-[#16213E] border border-gray-700 rounded-2xl mb-3" data-comment-id="`).Text(c.ID).Raw(`">`)
			hw.Raw(`<div class="w-10 h-10 `).Text(AvatarColor(c.Name)).Raw(` rounded-full flex items-center justify-center text-white font-bold shrink-0" data-comment-avatar>`).Text(format.Initial(c.Name)).Raw(`</div>`)
			hw.Raw(`<div class="flex-1"><div class="flex justify-between items-center mb-1">`)
			hw.Raw(`<h4 class="font-bold text-white text-sm">`).Text(c.Name).Raw(`</h4>`)
			hw.Raw(`<time class="text-xs text-gray-500" datetime="`).Text(format.ISODate(c.Date)).Raw(`">`).Text(format.FmtDate(c.Date)).Raw(`</time></div>`)
			hw.Raw(`<p class="text-gray-300 text-sm leading-relaxed">`).Text(c.Message).Raw(`</p></div></div>`)
		}
		hw.Raw(`</div>`)
		return hw.Err()
	})
}
