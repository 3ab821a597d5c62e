package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"photoshare/pkg/domain"
	"photoshare/pkg/store"
)

type countingStore struct {
	store.Store
	reads atomic.Int64
}

func (c *countingStore) ListRecentByOwner(ownerID uint, limit int) ([]domain.Photo, error) {
	c.reads.Add(1)
	return c.Store.ListRecentByOwner(ownerID, limit)
}

type fakeGenerator struct {
	reply      string
	err        error
	lastUser   string
	lastSystem string
}

func (f *fakeGenerator) GenerateText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply, f.err
}

func TestChatSearchRequiresQuery(t *testing.T) {
	a, _, _ := newTestApp(t, Config{Generator: &fakeGenerator{reply: "{}"}})
	if _, err := a.ChatSearch(context.Background(), 1, "   ", ""); !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("ChatSearch(blank) error = %v, want ErrQueryRequired", err)
	}
}

func TestChatSearchFailsBeforeReadsWithoutCredential(t *testing.T) {
	counting := &countingStore{Store: store.NewMemoryStore()}
	a, _, _ := newTestApp(t, Config{Store: counting})

	_, err := a.ChatSearch(context.Background(), 1, "sunsets?", "")
	if !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("ChatSearch() error = %v, want ErrAIUnavailable", err)
	}
	if n := counting.reads.Load(); n != 0 {
		t.Fatalf("store was read %d times before the credential check", n)
	}
}

func TestChatSearchScopesIDsToOwner(t *testing.T) {
	gen := &fakeGenerator{}
	a, _, _ := newTestApp(t, Config{Generator: gen})

	mine := seedPhoto(t, a, 1, "my sunset")
	theirs := seedPhoto(t, a, 2, "their sunset")

	// The model echoes back both a valid id, a foreign id, and a
	// nonexistent one; only the caller's own photo may come back.
	gen.reply = fmt.Sprintf(`{"answer": "two sunsets", "photo_ids": [%d, %d, 999]}`, mine.ID, theirs.ID)

	res, err := a.ChatSearch(context.Background(), 1, "show me sunsets", "")
	if err != nil {
		t.Fatalf("ChatSearch() error: %v", err)
	}
	if res.Answer != "two sunsets" {
		t.Fatalf("answer = %q, want %q", res.Answer, "two sunsets")
	}
	if len(res.Photos) != 1 || res.Photos[0].ID != mine.ID {
		t.Fatalf("photos = %v, want just photo %d", res.Photos, mine.ID)
	}
}

func TestChatSearchContextContainsOwnPhotosOnly(t *testing.T) {
	gen := &fakeGenerator{reply: `{"answer": "ok", "photo_ids": []}`}
	a, _, _ := newTestApp(t, Config{Generator: gen})

	seedPhoto(t, a, 1, "mine-alpha")
	seedPhoto(t, a, 2, "other-beta")

	if _, err := a.ChatSearch(context.Background(), 1, "anything", ""); err != nil {
		t.Fatalf("ChatSearch() error: %v", err)
	}
	if !strings.Contains(gen.lastUser, "mine-alpha") {
		t.Fatalf("prompt missing caller's photo: %q", gen.lastUser)
	}
	if strings.Contains(gen.lastUser, "other-beta") {
		t.Fatalf("prompt leaked another user's photo: %q", gen.lastUser)
	}
}

func TestChatSearchMalformedReplyDegrades(t *testing.T) {
	gen := &fakeGenerator{reply: "I could not find anything."}
	a, _, _ := newTestApp(t, Config{Generator: gen})
	seedPhoto(t, a, 1, "x")

	res, err := a.ChatSearch(context.Background(), 1, "anything", "")
	if err != nil {
		t.Fatalf("ChatSearch() error: %v", err)
	}
	if res.Answer != "I could not find anything." || len(res.Photos) != 0 {
		t.Fatalf("degraded result = %+v, want raw answer with no photos", res)
	}
}

func TestChatSearchStripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"answer\": \"fenced\", \"photo_ids\": []}\n```"}
	a, _, _ := newTestApp(t, Config{Generator: gen})
	seedPhoto(t, a, 1, "x")

	res, err := a.ChatSearch(context.Background(), 1, "anything", "")
	if err != nil {
		t.Fatalf("ChatSearch() error: %v", err)
	}
	if res.Answer != "fenced" {
		t.Fatalf("answer = %q, want %q", res.Answer, "fenced")
	}
}
