// Package memory is an in-process record store with the same semantics as
// the PostgreSQL repository. It backs development runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snipurl/snip/internal/model"
	"github.com/snipurl/snip/internal/repository"
)

// Store keeps links in maps guarded by one mutex.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*model.Link
	byCode  map[string]string // short code -> id
	byAlias map[string]string // custom alias -> id
	now     func() time.Time

	// FailWrites makes every write return err when set. Tests only.
	FailWrites error
}

// New returns an empty Store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty Store stamping records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		byID:    make(map[string]*model.Link),
		byCode:  make(map[string]string),
		byAlias: make(map[string]string),
		now:     now,
	}
}

// Insert stores a copy of link.
func (s *Store) Insert(_ context.Context, link *model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	if _, ok := s.byCode[link.ShortCode]; ok {
		return repository.ErrDuplicate
	}
	if link.CustomAlias != "" {
		if _, ok := s.byAlias[link.CustomAlias]; ok {
			return repository.ErrDuplicate
		}
	}

	now := s.now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := link.Clone()
	if stored.Clicks == nil {
		stored.Clicks = []model.ClickEvent{}
	}
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	s.byID[stored.ID] = stored
	s.byCode[stored.ShortCode] = stored.ID
	if stored.CustomAlias != "" {
		s.byAlias[stored.CustomAlias] = stored.ID
	}
	return nil
}

// GetByIdentifier returns a copy of the link with the given short code.
func (s *Store) GetByIdentifier(_ context.Context, identifier string) (*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[identifier]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// IdentifierExists reports whether identifier is a short code or alias.
func (s *Store) IdentifierExists(_ context.Context, identifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, code := s.byCode[identifier]
	_, alias := s.byAlias[identifier]
	return code || alias, nil
}

// FindReusable returns the oldest plain link for longURL and createdBy.
func (s *Store) FindReusable(_ context.Context, longURL, createdBy string) (*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Link
	for _, l := range s.byID {
		if l.LongURL != longURL || l.CreatedBy != createdBy {
			continue
		}
		if !l.IsActive || l.CustomAlias != "" || l.ExpiresAt != nil || l.HasPassword() {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) ||
			(l.CreatedAt.Equal(found.CreatedAt) && l.ID < found.ID) {
			found = l
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found.Clone(), nil
}

// AppendClick records click and bumps the counter under one lock.
func (s *Store) AppendClick(_ context.Context, id string, click model.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	l, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Clicks = append(l.Clicks, click)
	l.ClickCount++
	l.UpdatedAt = s.now().UTC()
	return nil
}

// List returns one page of links matching q and the total match count.
// Returned links carry neither clicks nor password hashes; Protected marks
// the gated ones.
func (s *Store) List(_ context.Context, q model.LinkQuery) ([]*model.Link, int, error) {
	s.mu.RLock()
	matched := make([]*model.Link, 0, len(s.byID))
	for _, l := range s.byID {
		ok, err := matches(l, q)
		if err != nil {
			s.mu.RUnlock()
			return nil, 0, err
		}
		if ok {
			c := l.Clone()
			c.Clicks = nil
			c.Protected = c.HasPassword()
			c.PasswordHash = ""
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	desc := q.Order != model.SortAsc
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		// links without expiry sort last in either direction
		if q.Sort == model.FieldExpiresAt && (a.ExpiresAt == nil) != (b.ExpiresAt == nil) {
			return b.ExpiresAt == nil
		}
		c := compare(a, b, q.Sort)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []*model.Link{}, total, nil
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// DeleteExpired removes links whose expiry lies before now.
func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, l := range s.byID {
		if l.IsExpired(now) {
			delete(s.byID, id)
			delete(s.byCode, l.ShortCode)
			if l.CustomAlias != "" {
				delete(s.byAlias, l.CustomAlias)
			}
			n++
		}
	}
	return n, nil
}

// SetActive flips the soft-disable flag. Tests only.
func (s *Store) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.IsActive = active
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func matches(l *model.Link, q model.LinkQuery) (bool, error) {
	for _, f := range q.All {
		ok, err := matchFilter(l, f)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(q.Any) == 0 {
		return true, nil
	}
	for _, f := range q.Any {
		ok, err := matchFilter(l, f)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func matchFilter(l *model.Link, f model.Filter) (bool, error) {
	if f.Field == model.FieldTags {
		if f.Op != model.OpHas {
			return false, fmt.Errorf("unsupported operator %q for tags", f.Op)
		}
		for _, tag := range l.Tags {
			if tag == f.Value {
				return true, nil
			}
		}
		return false, nil
	}

	var v string
	switch f.Field {
	case model.FieldLongURL:
		v = l.LongURL
	case model.FieldShortCode:
		v = l.ShortCode
	case model.FieldCustomAlias:
		v = l.CustomAlias
	default:
		return false, fmt.Errorf("unsupported filter field %q", f.Field)
	}

	switch f.Op {
	case model.OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(f.Value)), nil
	case model.OpEquals:
		return v == f.Value, nil
	default:
		return false, fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

func compare(a, b *model.Link, field string) int {
	switch field {
	case model.FieldClickCount:
		return cmpInt64(a.ClickCount, b.ClickCount)
	case model.FieldLongURL:
		return strings.Compare(a.LongURL, b.LongURL)
	case model.FieldShortCode:
		return strings.Compare(a.ShortCode, b.ShortCode)
	case model.FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case model.FieldExpiresAt:
		return cmpExpiry(a.ExpiresAt, b.ExpiresAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpExpiry(a, b *time.Time) int {
	if a == nil || b == nil {
		return 0
	}
	return a.Compare(*b)
}
