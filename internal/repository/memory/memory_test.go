package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/snipurl/snip/internal/analytics"
	"github.com/snipurl/snip/internal/model"
	"github.com/snipurl/snip/internal/repository"
	"github.com/snipurl/snip/internal/testutil"
)

func TestStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	link := testutil.NewTestLink(t, "abc12345")
	if err := s.Insert(ctx, link); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if link.CreatedAt.IsZero() {
		t.Error("Insert should stamp CreatedAt")
	}

	got, err := s.GetByIdentifier(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetByIdentifier() error: %v", err)
	}
	if got.LongURL != link.LongURL {
		t.Errorf("LongURL = %q, want %q", got.LongURL, link.LongURL)
	}

	got.LongURL = "https://mutated.example"
	again, _ := s.GetByIdentifier(ctx, "abc12345")
	if again.LongURL == "https://mutated.example" {
		t.Error("GetByIdentifier returned shared state")
	}

	if _, err := s.GetByIdentifier(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByIdentifier(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_InsertDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	first := testutil.NewTestLink(t, "promo1")
	first.CustomAlias = "promo1"
	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	second := testutil.NewTestLink(t, "promo1")
	if err := s.Insert(ctx, second); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Insert(duplicate) error = %v, want ErrDuplicate", err)
	}

	exists, _ := s.IdentifierExists(ctx, "promo1")
	if !exists {
		t.Error("IdentifierExists(promo1) = false, want true")
	}
}

func TestStore_AppendClickConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	link := testutil.NewTestLink(t, "clicky")
	if err := s.Insert(ctx, link); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AppendClick(ctx, link.ID, analytics.NewClick(time.Now(), "ip", "ua", ""))
		}()
	}
	wg.Wait()

	got, _ := s.GetByIdentifier(ctx, "clicky")
	if got.ClickCount != n || len(got.Clicks) != n {
		t.Errorf("ClickCount = %d, len(Clicks) = %d; want %d", got.ClickCount, len(got.Clicks), n)
	}

	if err := s.AppendClick(ctx, "missing", model.ClickEvent{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("AppendClick(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_FindReusable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	future := time.Now().Add(time.Hour)
	variants := []*model.Link{
		{ID: "1", ShortCode: "alias1", CustomAlias: "alias1", IsActive: true},
		{ID: "2", ShortCode: "exp00001", ExpiresAt: &future, IsActive: true},
		{ID: "3", ShortCode: "pw000001", PasswordHash: "h", IsActive: true},
		{ID: "4", ShortCode: "off00001", IsActive: false},
	}
	for _, l := range variants {
		l.LongURL = "https://dedup.example"
		l.CreatedBy = model.CreatorAnonymous
		if err := s.Insert(ctx, l); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	if _, err := s.FindReusable(ctx, "https://dedup.example", model.CreatorAnonymous); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("FindReusable() error = %v, want ErrNotFound", err)
	}

	plain := &model.Link{ID: "5", ShortCode: "plain001", LongURL: "https://dedup.example", CreatedBy: model.CreatorAnonymous, IsActive: true}
	if err := s.Insert(ctx, plain); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	got, err := s.FindReusable(ctx, "https://dedup.example", model.CreatorAnonymous)
	if err != nil {
		t.Fatalf("FindReusable() error: %v", err)
	}
	if got.ID != "5" {
		t.Errorf("FindReusable() = %s, want 5", got.ID)
	}

	if _, err := s.FindReusable(ctx, "https://dedup.example", "someone-else"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("FindReusable(other creator) error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	s := NewWithClock(func() time.Time { return clock })

	seed := []struct {
		code string
		url  string
		tags []string
	}{
		{"aaa11111", "https://golang.org/doc", []string{"go"}},
		{"bbb22222", "https://example.com/GoLang", []string{"news"}},
		{"ccc33333", "https://rust-lang.org", []string{"go", "news"}},
		{"ddd44444", "https://python.org", nil},
	}
	for i, sd := range seed {
		clock = base.Add(time.Duration(i) * time.Hour)
		l := &model.Link{ID: sd.code, ShortCode: sd.code, LongURL: sd.url, Tags: sd.tags, IsActive: true, PasswordHash: "secret"}
		if err := s.Insert(ctx, l); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}
	_ = s.AppendClick(ctx, "ddd44444", model.ClickEvent{})

	tests := []struct {
		name      string
		q         model.LinkQuery
		wantCodes []string
		wantTotal int
	}{
		{
			name:      "default newest first",
			q:         model.LinkQuery{Sort: model.FieldCreatedAt, Order: model.SortDesc, Page: 1, Limit: 10},
			wantCodes: []string{"ddd44444", "ccc33333", "bbb22222", "aaa11111"},
			wantTotal: 4,
		},
		{
			name:      "second page",
			q:         model.LinkQuery{Sort: model.FieldCreatedAt, Order: model.SortAsc, Page: 2, Limit: 3},
			wantCodes: []string{"ddd44444"},
			wantTotal: 4,
		},
		{
			name: "case insensitive search",
			q: model.LinkQuery{
				Any: []model.Filter{
					{Field: model.FieldLongURL, Op: model.OpContains, Value: "golang"},
					{Field: model.FieldShortCode, Op: model.OpContains, Value: "golang"},
				},
				Sort: model.FieldCreatedAt, Order: model.SortAsc, Page: 1, Limit: 10,
			},
			wantCodes: []string{"aaa11111", "bbb22222"},
			wantTotal: 2,
		},
		{
			name: "tag filter",
			q: model.LinkQuery{
				All:  []model.Filter{{Field: model.FieldTags, Op: model.OpHas, Value: "go"}},
				Sort: model.FieldCreatedAt, Order: model.SortAsc, Page: 1, Limit: 10,
			},
			wantCodes: []string{"aaa11111", "ccc33333"},
			wantTotal: 2,
		},
		{
			name:      "sort by clicks",
			q:         model.LinkQuery{Sort: model.FieldClickCount, Order: model.SortDesc, Page: 1, Limit: 1},
			wantCodes: []string{"ddd44444"},
			wantTotal: 4,
		},
		{
			name:      "page past end",
			q:         model.LinkQuery{Page: 9, Limit: 10},
			wantCodes: []string{},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, total, err := s.List(ctx, tt.q)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(links) != len(tt.wantCodes) {
				t.Fatalf("len(links) = %d, want %d", len(links), len(tt.wantCodes))
			}
			for i, l := range links {
				if l.ShortCode != tt.wantCodes[i] {
					t.Errorf("links[%d] = %s, want %s", i, l.ShortCode, tt.wantCodes[i])
				}
				if l.Clicks != nil || l.PasswordHash != "" {
					t.Error("List must not expose clicks or password hash")
				}
			}
		})
	}
}

func TestStore_ListMarksProtectedLinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	locked := testutil.NewTestLink(t, "locked1", func(l *model.Link) { l.PasswordHash = "hash" })
	open := testutil.NewTestLink(t, "open1")
	for _, l := range []*model.Link{locked, open} {
		if err := s.Insert(ctx, l); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	links, _, err := s.List(ctx, model.LinkQuery{Sort: model.FieldShortCode, Order: model.SortAsc, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := map[string]bool{"locked1": true, "open1": false}
	for _, l := range links {
		if l.PasswordHash != "" {
			t.Errorf("%s: password hash exposed", l.ShortCode)
		}
		if got := l.HasPassword(); got != want[l.ShortCode] {
			t.Errorf("%s: HasPassword() = %v, want %v", l.ShortCode, got, want[l.ShortCode])
		}
	}

	stored, err := s.GetByIdentifier(ctx, "open1")
	if err != nil {
		t.Fatalf("GetByIdentifier() error: %v", err)
	}
	if stored.Protected {
		t.Error("listing leaked Protected into stored state")
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	now := time.Now()

	_ = s.Insert(ctx, testutil.NewTestLink(t, "old00001", testutil.WithExpiry(now.Add(-time.Minute))))
	_ = s.Insert(ctx, testutil.NewTestLink(t, "new00001", testutil.WithExpiry(now.Add(time.Hour))))
	_ = s.Insert(ctx, testutil.NewTestLink(t, "never001"))

	n, err := s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired() error: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}
	if exists, _ := s.IdentifierExists(ctx, "old00001"); exists {
		t.Error("expired link still present")
	}
	if exists, _ := s.IdentifierExists(ctx, "new00001"); !exists {
		t.Error("unexpired link removed")
	}
}
