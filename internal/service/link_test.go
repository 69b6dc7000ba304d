package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/snipurl/snip/internal/metrics"
	"github.com/snipurl/snip/internal/model"
	"github.com/snipurl/snip/internal/password"
	"github.com/snipurl/snip/internal/repository/memory"
)

var testParams = password.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedGenerator returns codes in order, then repeats the last one.
type scriptedGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *scriptedGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.calls++
	return g.codes[i], nil
}

type counterGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *counterGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("code%04d", g.n), nil
}

type stubQR struct{}

func (stubQR) DataURL(content string) (string, error) {
	return "data:image/png;base64," + content, nil
}

type testEnv struct {
	svc     *LinkService
	store   *memory.Store
	clock   *testClock
	metrics *metrics.InMemoryRecorder
}

func newTestEnv(t *testing.T, gen CodeGenerator) *testEnv {
	t.Helper()

	clock := &testClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	store := memory.NewWithClock(clock.Now)
	rec := metrics.NewInMemory()
	if gen == nil {
		gen = &counterGenerator{}
	}

	svc := NewLinkService(store, Options{
		BaseURL:   "https://snip.test/",
		Generator: gen,
		Hasher:    password.NewHasher(testParams),
		QR:        stubQR{},
		Metrics:   rec,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       clock.Now,
	})
	return &testEnv{svc: svc, store: store, clock: clock, metrics: rec}
}

func fieldNames(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func TestShorten_CreatesLink(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	res, err := env.svc.Shorten(context.Background(), ShortenInput{
		LongURL: "https://example.com/page",
		Tags:    []string{" go ", "go", "", "web"},
	})
	if err != nil {
		t.Fatalf("Shorten() error = %v", err)
	}

	link := res.Link
	if res.Reused {
		t.Error("first create should not be reused")
	}
	if res.ShortURL != "https://snip.test/"+link.ShortCode {
		t.Errorf("ShortURL = %q", res.ShortURL)
	}
	if link.QRCode != "data:image/png;base64,"+res.ShortURL {
		t.Errorf("QRCode = %q", link.QRCode)
	}
	if link.CreatedBy != model.CreatorAnonymous {
		t.Errorf("CreatedBy = %q, want anonymous", link.CreatedBy)
	}
	if got := strings.Join(link.Tags, ","); got != "go,web" {
		t.Errorf("Tags = %q, want go,web", got)
	}
	if link.ID == "" || !link.IsActive || link.ExpiresAt != nil {
		t.Errorf("unexpected link state: %+v", link)
	}
	if env.metrics.Snapshot().LinksCreated != 1 {
		t.Error("expected created counter to be 1")
	}
}

func TestShorten_Dedup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		second    ShortenInput
		wantReuse bool
	}{
		{"identical plain request", ShortenInput{LongURL: "https://example.com"}, true},
		{"same creator explicit", ShortenInput{LongURL: "https://example.com", CreatedBy: "anonymous"}, true},
		{"different creator", ShortenInput{LongURL: "https://example.com", CreatedBy: "alice"}, false},
		{"with alias", ShortenInput{LongURL: "https://example.com", CustomAlias: "my-alias"}, false},
		{"with expiry", ShortenInput{LongURL: "https://example.com", ExpiresIn: "1d"}, false},
		{"with password", ShortenInput{LongURL: "https://example.com", Password: "s3cret"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			first, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://example.com"})
			if err != nil {
				t.Fatalf("first Shorten() error = %v", err)
			}
			second, err := env.svc.Shorten(ctx, tt.second)
			if err != nil {
				t.Fatalf("second Shorten() error = %v", err)
			}

			if second.Reused != tt.wantReuse {
				t.Errorf("Reused = %v, want %v", second.Reused, tt.wantReuse)
			}
			if same := first.ShortURL == second.ShortURL; same != tt.wantReuse {
				t.Errorf("same short URL = %v, want %v", same, tt.wantReuse)
			}
		})
	}
}

func TestShorten_DedupIgnoresProtectedOriginal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://example.com", Password: "s3cret"}); err != nil {
		t.Fatal(err)
	}
	res, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reused {
		t.Error("a password-protected link must never be reused")
	}
}

func TestShorten_CustomAlias(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &scriptedGenerator{codes: []string{"gen00001"}})
	ctx := context.Background()

	res, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://example.com", CustomAlias: "launch"})
	if err != nil {
		t.Fatalf("Shorten() error = %v", err)
	}
	if res.ShortURL != "https://snip.test/launch" || res.Link.ShortCode != "launch" || res.Link.CustomAlias != "launch" {
		t.Errorf("unexpected alias link: url=%s code=%s alias=%s", res.ShortURL, res.Link.ShortCode, res.Link.CustomAlias)
	}

	_, err = env.svc.Shorten(ctx, ShortenInput{LongURL: "https://other.example", CustomAlias: "launch"})
	if !errors.Is(err, ErrAliasTaken) {
		t.Fatalf("expected ErrAliasTaken, got %v", err)
	}

	// A generated code occupies the same namespace.
	gen, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://third.example"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.svc.Shorten(ctx, ShortenInput{LongURL: "https://fourth.example", CustomAlias: gen.Link.ShortCode})
	if !errors.Is(err, ErrAliasTaken) {
		t.Fatalf("expected ErrAliasTaken for alias equal to generated code, got %v", err)
	}

	// The original record is untouched.
	stored, err := env.store.GetByIdentifier(ctx, "launch")
	if err != nil {
		t.Fatal(err)
	}
	if stored.LongURL != "https://example.com" {
		t.Errorf("alias owner overwritten: %s", stored.LongURL)
	}
}

func TestShorten_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         ShortenInput
		wantFields []string
		wantErr    error
	}{
		{"missing url", ShortenInput{}, []string{"longUrl"}, ErrValidation},
		{"ftp url", ShortenInput{LongURL: "ftp://example.com"}, []string{"longUrl"}, ErrValidation},
		{"bad expiry", ShortenInput{LongURL: "https://e.com", ExpiresIn: "2w"}, []string{"expiresIn"}, ErrValidation},
		{"short password", ShortenInput{LongURL: "https://e.com", Password: "abc"}, []string{"password"}, ErrValidation},
		{"long creator", ShortenInput{LongURL: "https://e.com", CreatedBy: strings.Repeat("x", 101)}, []string{"createdBy"}, ErrValidation},
		{"several", ShortenInput{LongURL: "nope", Password: "a"}, []string{"longUrl", "password"}, ErrValidation},
		{"bad alias", ShortenInput{LongURL: "https://e.com", CustomAlias: "a b"}, nil, ErrAliasInvalid},
		{"reserved alias", ShortenInput{LongURL: "https://e.com", CustomAlias: "health"}, nil, ErrAliasInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			_, err := env.svc.Shorten(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantFields != nil {
				if got := strings.Join(fieldNames(err), ","); got != strings.Join(tt.wantFields, ",") {
					t.Errorf("fields = %s, want %v", got, tt.wantFields)
				}
			}
		})
	}
}

func TestShorten_ExpiryPresets(t *testing.T) {
	t.Parallel()

	for preset, d := range ExpiryPresets {
		d := d
		preset := preset
		t.Run(preset, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			res, err := env.svc.Shorten(context.Background(), ShortenInput{LongURL: "https://e.com", ExpiresIn: preset})
			if err != nil {
				t.Fatal(err)
			}
			want := env.clock.Now().Add(d)
			if res.Link.ExpiresAt == nil || !res.Link.ExpiresAt.Equal(want) {
				t.Errorf("ExpiresAt = %v, want %v", res.Link.ExpiresAt, want)
			}
		})
	}
}

func TestShorten_RegeneratesOnCollision(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{codes: []string{"taken001", "taken001", "fresh001"}}
	env := newTestEnv(t, gen)
	ctx := context.Background()

	if _, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://a.example"}); err != nil {
		t.Fatal(err)
	}
	res, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://b.example"})
	if err != nil {
		t.Fatalf("Shorten() error = %v", err)
	}
	if res.Link.ShortCode != "fresh001" {
		t.Errorf("ShortCode = %q, want fresh001", res.Link.ShortCode)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
}

func TestShorten_GenerationExhausted(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{codes: []string{"same0001"}}
	env := newTestEnv(t, gen)
	ctx := context.Background()

	if _, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://a.example"}); err != nil {
		t.Fatal(err)
	}
	_, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://b.example"})
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("expected ErrGenerationExhausted, got %v", err)
	}
	if gen.calls != 1+MaxGenerationAttempts {
		t.Errorf("generator calls = %d, want %d", gen.calls, 1+MaxGenerationAttempts)
	}
}

func TestShorten_StorageFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.FailWrites = errors.New("disk full")

	_, err := env.svc.Shorten(context.Background(), ShortenInput{LongURL: "https://e.com"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if PublicMessage(err) != "internal server error" {
		t.Errorf("storage detail leaked: %q", PublicMessage(err))
	}
}

func TestResolve_Gates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cc := ClickContext{IP: "192.0.2.1", UserAgent: "Mozilla/5.0"}

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		if _, err := env.svc.Resolve(ctx, "missing1", "", cc); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("inactive is not found", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		res, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com"})
		if err := env.store.SetActive(res.Link.ID, false); err != nil {
			t.Fatal(err)
		}
		if _, err := env.svc.Resolve(ctx, res.Link.ShortCode, "", cc); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("expired before sweep", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		res, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com", ExpiresIn: "1h"})
		env.clock.Advance(time.Hour + time.Second)
		if _, err := env.svc.Resolve(ctx, res.Link.ShortCode, "", cc); !errors.Is(err, ErrExpired) {
			t.Fatalf("expected ErrExpired, got %v", err)
		}
		link, _ := env.store.GetByIdentifier(ctx, res.Link.ShortCode)
		if link.ClickCount != 0 {
			t.Errorf("expired redirect recorded a click")
		}
	})

	t.Run("password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		res, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com/secret", Password: "open-sesame"})
		if err != nil {
			t.Fatal(err)
		}
		code := res.Link.ShortCode

		if _, err := env.svc.Resolve(ctx, code, "", cc); !errors.Is(err, ErrPasswordRequired) {
			t.Fatalf("no password: expected ErrPasswordRequired, got %v", err)
		}
		if _, err := env.svc.Resolve(ctx, code, "wrong-one", cc); !errors.Is(err, ErrPasswordIncorrect) {
			t.Fatalf("wrong password: expected ErrPasswordIncorrect, got %v", err)
		}

		link, err := env.svc.Resolve(ctx, code, "open-sesame", cc)
		if err != nil {
			t.Fatalf("correct password: %v", err)
		}
		if link.LongURL != "https://e.com/secret" {
			t.Errorf("LongURL = %q", link.LongURL)
		}

		stored, _ := env.store.GetByIdentifier(ctx, code)
		if stored.ClickCount != 1 || len(stored.Clicks) != 1 {
			t.Errorf("clicks = %d/%d, want exactly one", stored.ClickCount, len(stored.Clicks))
		}
		if stored.PasswordHash == "open-sesame" {
			t.Error("password stored in plain text")
		}
	})
}

func TestResolve_RecordsClicks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com"})
	code := res.Link.ShortCode

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := ""
			if i%2 == 0 {
				ref = "https://news.example"
			}
			if _, err := env.svc.Resolve(ctx, code, "", ClickContext{IP: fmt.Sprintf("192.0.2.%d", i), Referer: ref}); err != nil {
				t.Errorf("Resolve() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := env.store.GetByIdentifier(ctx, code)
	if stored.ClickCount != n || len(stored.Clicks) != n {
		t.Fatalf("clickCount=%d len(clicks)=%d, want %d", stored.ClickCount, len(stored.Clicks), n)
	}

	direct := 0
	for _, c := range stored.Clicks {
		if c.Referer == model.DirectReferer {
			direct++
		}
		if !c.Timestamp.Equal(env.clock.Now()) {
			t.Errorf("click timestamp = %v", c.Timestamp)
		}
	}
	if direct != 12 {
		t.Errorf("direct clicks = %d, want 12", direct)
	}
	if got := env.metrics.Snapshot().Redirects["ok"]; got != n {
		t.Errorf("redirect ok counter = %d, want %d", got, n)
	}
}

func TestResolve_StorageFailureRecordsNothing(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com"})
	env.store.FailWrites = errors.New("connection reset")

	_, err := env.svc.Resolve(ctx, res.Link.ShortCode, "", ClickContext{IP: "192.0.2.1"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	stored, _ := env.store.GetByIdentifier(ctx, res.Link.ShortCode)
	if stored.ClickCount != 0 || len(stored.Clicks) != 0 {
		t.Errorf("partial click recorded: %d/%d", stored.ClickCount, len(stored.Clicks))
	}
}

func TestBulkShorten_Validation(t *testing.T) {
	t.Parallel()

	many := make([]BulkItem, MaxBulkItems+1)
	for i := range many {
		many[i] = BulkItem{LongURL: "https://e.com"}
	}

	tests := []struct {
		name       string
		items      []BulkItem
		wantFields []string
	}{
		{"empty", nil, []string{"urls"}},
		{"too many", many, []string{"urls"}},
		{"bad urls reported by index", []BulkItem{
			{LongURL: "https://ok.example"},
			{LongURL: "not a url"},
			{LongURL: "https://ok2.example"},
			{LongURL: "mailto:x@example.com"},
		}, []string{"urls[1].longUrl", "urls[3].longUrl"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			_, err := env.svc.BulkShorten(context.Background(), tt.items)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got := strings.Join(fieldNames(err), ","); got != strings.Join(tt.wantFields, ",") {
				t.Errorf("fields = %s, want %v", got, tt.wantFields)
			}
			if env.metrics.Snapshot().LinksCreated != 0 {
				t.Error("nothing should be created when validation fails")
			}
		})
	}
}

func TestBulkShorten_IsolatesFailures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com", CustomAlias: "taken"}); err != nil {
		t.Fatal(err)
	}
	plain, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://dup.example", CreatedBy: "bulk"})

	results, err := env.svc.BulkShorten(ctx, []BulkItem{
		{LongURL: "https://one.example"},
		{LongURL: "https://two.example", CustomAlias: "taken"},
		{LongURL: "https://three.example", CustomAlias: "x"},
		{LongURL: "https://dup.example"},
		{LongURL: "https://five.example", CustomAlias: "five-alias", Tags: []string{"batch"}},
	})
	if err != nil {
		t.Fatalf("BulkShorten() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}

	wantSuccess := []bool{true, false, false, true, true}
	for i, r := range results {
		if r.Success != wantSuccess[i] {
			t.Errorf("item %d: success = %v, want %v (%s)", i, r.Success, wantSuccess[i], r.Error)
		}
	}

	if results[1].LongURL != "https://two.example" || results[1].Error != "custom alias already in use" {
		t.Errorf("item 1 = %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrAliasInvalid) {
		t.Errorf("item 2 error = %v", results[2].Err)
	}
	if results[3].ShortURL == plain.ShortURL {
		t.Error("bulk items must never reuse existing links")
	}
	if results[4].ShortURL != "https://snip.test/five-alias" {
		t.Errorf("item 4 ShortURL = %q", results[4].ShortURL)
	}

	stored, err := env.store.GetByIdentifier(ctx, "five-alias")
	if err != nil {
		t.Fatal(err)
	}
	if stored.CreatedBy != model.CreatorBulk {
		t.Errorf("CreatedBy = %q, want bulk", stored.CreatedBy)
	}

	snap := env.metrics.Snapshot()
	if snap.BulkItems["success"] != 3 || snap.BulkItems["failed"] != 2 {
		t.Errorf("bulk metrics = %v", snap.BulkItems)
	}
}

func TestAnalytics(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, _, err := env.svc.Analytics(ctx, "missing1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	res, _ := env.svc.Shorten(ctx, ShortenInput{LongURL: "https://e.com", CustomAlias: "stats"})
	for _, ip := range []string{"192.0.2.1", "192.0.2.1", "192.0.2.2"} {
		if _, err := env.svc.Resolve(ctx, "stats", "", ClickContext{IP: ip, UserAgent: "Mozilla/5.0 (iPhone) Mobile"}); err != nil {
			t.Fatal(err)
		}
	}

	link, summary, err := env.svc.Analytics(ctx, "stats")
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if link.ID != res.Link.ID {
		t.Errorf("wrong link returned")
	}
	if summary.TotalClicks != 3 || summary.UniqueClicks != 2 || summary.ClicksToday != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.DeviceStats.Mobile != 3 {
		t.Errorf("device stats = %+v", summary.DeviceStats)
	}
}

func TestBuildListQuery(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(ListInput{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if q.Page != 1 || q.Limit != 10 || q.Sort != model.FieldCreatedAt || q.Order != model.SortDesc {
		t.Errorf("defaults = %+v", q)
	}
	if len(q.Any) != 0 || len(q.All) != 0 {
		t.Errorf("unexpected filters: %+v", q)
	}

	q, err = BuildListQuery(ListInput{Search: " exa ", Tag: "go", Order: "ASC", SortBy: "clickCount"})
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Any) != 3 || q.Any[0].Value != "exa" || q.Any[0].Op != model.OpContains {
		t.Errorf("search filters = %+v", q.Any)
	}
	if len(q.All) != 1 || q.All[0].Field != model.FieldTags || q.All[0].Op != model.OpHas {
		t.Errorf("tag filter = %+v", q.All)
	}
	if q.Order != model.SortAsc {
		t.Errorf("order = %q", q.Order)
	}

	q, err = BuildListQuery(ListInput{Page: math.MaxInt / 100, Limit: 100})
	if err != nil {
		t.Fatalf("largest page: %v", err)
	}
	if q.Offset() < 0 {
		t.Errorf("Offset() = %d for page %d", q.Offset(), q.Page)
	}

	invalid := []ListInput{
		{Page: -1},
		{Page: math.MaxInt},
		{Page: math.MaxInt/10 + 1},
		{Limit: 101},
		{Limit: -5},
		{SortBy: "passwordHash"},
		{Order: "sideways"},
	}
	for _, in := range invalid {
		if _, err := BuildListQuery(in); !errors.Is(err, ErrValidation) {
			t.Errorf("BuildListQuery(%+v) error = %v, want ErrValidation", in, err)
		}
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		in := ShortenInput{LongURL: fmt.Sprintf("https://site%02d.example", i)}
		if i%3 == 0 {
			in.Tags = []string{"promo"}
		}
		if _, err := env.svc.Shorten(ctx, in); err != nil {
			t.Fatal(err)
		}
		env.clock.Advance(time.Second)
	}

	res, err := env.svc.List(ctx, ListInput{Limit: 5, Page: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 12 || res.TotalPages != 3 || res.CurrentPage != 3 || len(res.Links) != 2 {
		t.Errorf("page 3 = total %d pages %d current %d len %d", res.Total, res.TotalPages, res.CurrentPage, len(res.Links))
	}
	// Newest first by default: the last page holds the two oldest.
	if res.Links[1].LongURL != "https://site00.example" {
		t.Errorf("last link = %s", res.Links[1].LongURL)
	}

	res, err = env.svc.List(ctx, ListInput{Tag: "promo"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 4 {
		t.Errorf("tag filter total = %d, want 4", res.Total)
	}

	res, err = env.svc.List(ctx, ListInput{Search: "SITE1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("search total = %d, want 2", res.Total)
	}
	for _, l := range res.Links {
		if l.Clicks != nil || l.PasswordHash != "" {
			t.Errorf("listing leaked clicks or password hash: %+v", l)
		}
	}
}
