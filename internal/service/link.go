// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/snipurl/snip/internal/analytics"
	"github.com/snipurl/snip/internal/metrics"
	"github.com/snipurl/snip/internal/model"
	"github.com/snipurl/snip/internal/repository"
	"github.com/snipurl/snip/internal/shortcode"
)

// MaxGenerationAttempts bounds short code regeneration after collisions.
const MaxGenerationAttempts = 5

// LinkStore is the record store contract.
type LinkStore interface {
	Insert(ctx context.Context, link *model.Link) error
	GetByIdentifier(ctx context.Context, identifier string) (*model.Link, error)
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	FindReusable(ctx context.Context, longURL, createdBy string) (*model.Link, error)
	AppendClick(ctx context.Context, id string, click model.ClickEvent) error
	List(ctx context.Context, q model.LinkQuery) ([]*model.Link, int, error)
}

// PasswordHasher is the one-way hash used for gated links.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, encoded string) (bool, error)
}

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// QRRenderer turns a short URL into an image payload.
type QRRenderer interface {
	DataURL(content string) (string, error)
}

// Options wires LinkService collaborators.
type Options struct {
	BaseURL   string
	Generator CodeGenerator
	Hasher    PasswordHasher
	QR        QRRenderer
	Metrics   metrics.Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

// LinkService handles link business logic.
type LinkService struct {
	store   LinkStore
	baseURL string
	gen     CodeGenerator
	hasher  PasswordHasher
	qr      QRRenderer
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewLinkService creates a new LinkService.
func NewLinkService(store LinkStore, opts Options) *LinkService {
	if opts.Generator == nil {
		opts.Generator = shortcode.NewGenerator()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LinkService{
		store:   store,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		gen:     opts.Generator,
		hasher:  opts.Hasher,
		qr:      opts.QR,
		metrics: opts.Metrics,
		logger:  opts.Logger.With("component", "service.link"),
		now:     opts.Now,
	}
}

// BaseURL returns the configured base URL.
func (s *LinkService) BaseURL() string {
	return s.baseURL
}

// ShortURL returns the public URL of link.
func (s *LinkService) ShortURL(link *model.Link) string {
	return s.baseURL + "/" + link.Identifier()
}

// ShortenInput defines input for creating a link.
type ShortenInput struct {
	LongURL     string
	CustomAlias string
	ExpiresIn   string
	Password    string
	Tags        []string
	CreatedBy   string
}

// ShortenResult is the outcome of Shorten.
type ShortenResult struct {
	Link     *model.Link
	ShortURL string
	// Reused is set when an existing link was returned instead of a new one.
	Reused bool
}

// Shorten creates a short link, or returns an identical existing one when
// the request carries no alias, expiry or password.
func (s *LinkService) Shorten(ctx context.Context, in ShortenInput) (*ShortenResult, error) {
	verr := &ValidationError{}
	validateCommon(verr, "", in.LongURL, in.CreatedBy)

	var ttl time.Duration
	if in.ExpiresIn != "" {
		d, ok := ExpiryPresets[in.ExpiresIn]
		if !ok {
			verr.add("expiresIn", "must be one of 1h, 1d, 7d, 30d")
		}
		ttl = d
	}
	if in.Password != "" && len(in.Password) < MinPasswordLength {
		verr.add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if err := validateAlias(in.CustomAlias); err != nil {
		return nil, err
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = model.CreatorAnonymous
	}

	if in.CustomAlias == "" && in.ExpiresIn == "" && in.Password == "" {
		existing, err := s.store.FindReusable(ctx, in.LongURL, createdBy)
		switch {
		case err == nil && existing.Reusable(s.now()):
			s.metrics.IncLinkReused()
			return &ShortenResult{Link: existing, ShortURL: s.ShortURL(existing), Reused: true}, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: find reusable: %w", ErrStorage, err)
		}
	}

	link := &model.Link{
		LongURL:   in.LongURL,
		Tags:      model.NormalizeTags(in.Tags),
		CreatedBy: createdBy,
		IsActive:  true,
	}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		link.ExpiresAt = &exp
	}
	if in.Password != "" {
		if s.hasher == nil {
			return nil, errors.New("password hasher not configured")
		}
		hash, err := s.hasher.Hash(ctx, in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		link.PasswordHash = hash
	}

	if err := s.create(ctx, link, in.CustomAlias); err != nil {
		return nil, err
	}

	return &ShortenResult{Link: link, ShortURL: s.ShortURL(link)}, nil
}

// create assigns an identifier and QR code to link and inserts it.
func (s *LinkService) create(ctx context.Context, link *model.Link, alias string) error {
	if alias != "" {
		taken, err := s.store.IdentifierExists(ctx, alias)
		if err != nil {
			return fmt.Errorf("%w: check alias: %w", ErrStorage, err)
		}
		if taken {
			return ErrAliasTaken
		}
		if err := s.insert(ctx, link, alias, alias); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAliasTaken
			}
			return err
		}
		return nil
	}

	for attempt := 1; attempt <= MaxGenerationAttempts; attempt++ {
		code, err := s.gen.Generate()
		if err != nil {
			return fmt.Errorf("generate short code: %w", err)
		}
		err = s.insert(ctx, link, code, "")
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.logger.Warn("short code collision", "attempt", attempt)
	}
	return ErrGenerationExhausted
}

func (s *LinkService) insert(ctx context.Context, link *model.Link, code, alias string) error {
	link.ID = ulid.Make().String()
	link.ShortCode = code
	link.CustomAlias = alias

	if s.qr != nil {
		qr, err := s.qr.DataURL(s.ShortURL(link))
		if err != nil {
			return fmt.Errorf("render qr code: %w", err)
		}
		link.QRCode = qr
	}

	if err := s.store.Insert(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		return fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}

	s.metrics.IncLinkCreated()
	return nil
}

// BulkItem is one entry of a bulk request.
type BulkItem struct {
	LongURL     string
	CustomAlias string
	Tags        []string
	CreatedBy   string
}

// BulkResult reports the outcome of one BulkItem.
type BulkResult struct {
	Success  bool
	ShortURL string
	Error    string
	LongURL  string
	Err      error
}

// BulkShorten creates every item in order. The batch as a whole is rejected
// when it is empty, too large, or contains a malformed URL; after that,
// each item succeeds or fails on its own.
func (s *LinkService) BulkShorten(ctx context.Context, items []BulkItem) ([]BulkResult, error) {
	verr := &ValidationError{}
	switch {
	case len(items) == 0:
		verr.add("urls", "must contain at least one item")
	case len(items) > MaxBulkItems:
		verr.add("urls", fmt.Sprintf("must contain at most %d items", MaxBulkItems))
	}
	for i, item := range items {
		validateCommon(verr, "urls["+strconv.Itoa(i)+"].", item.LongURL, item.CreatedBy)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	results := make([]BulkResult, len(items))
	for i, item := range items {
		results[i] = s.bulkOne(ctx, item)
		if results[i].Success {
			s.metrics.IncBulkItem("success")
		} else {
			s.metrics.IncBulkItem("failed")
		}
	}
	return results, nil
}

func (s *LinkService) bulkOne(ctx context.Context, item BulkItem) BulkResult {
	fail := func(err error) BulkResult {
		if !isClientError(err) {
			s.logger.Error("bulk item failed", "long_url", item.LongURL, "error", err)
		}
		return BulkResult{Success: false, Error: PublicMessage(err), LongURL: item.LongURL, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := validateAlias(item.CustomAlias); err != nil {
		return fail(err)
	}

	createdBy := item.CreatedBy
	if createdBy == "" {
		createdBy = model.CreatorBulk
	}
	link := &model.Link{
		LongURL:   item.LongURL,
		Tags:      model.NormalizeTags(item.Tags),
		CreatedBy: createdBy,
		IsActive:  true,
	}
	if err := s.create(ctx, link, item.CustomAlias); err != nil {
		return fail(err)
	}

	return BulkResult{Success: true, ShortURL: s.ShortURL(link), LongURL: item.LongURL}
}

// ClickContext carries the request metadata recorded with a click.
type ClickContext struct {
	IP        string
	UserAgent string
	Referer   string
}

// Resolve applies the activation, expiry and password gates to identifier,
// records one click and returns the link to redirect to.
func (s *LinkService) Resolve(ctx context.Context, identifier, password string, cc ClickContext) (*model.Link, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		s.metrics.ObserveRedirectDuration(time.Since(start))
		s.metrics.IncRedirect(outcome)
	}()

	link, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			outcome = "not_found"
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: lookup: %w", ErrStorage, err)
	}
	if !link.IsActive {
		outcome = "not_found"
		return nil, ErrNotFound
	}

	now := s.now()
	if link.IsExpired(now) {
		outcome = "expired"
		return nil, ErrExpired
	}

	if link.HasPassword() {
		if password == "" {
			outcome = "password"
			return nil, ErrPasswordRequired
		}
		if s.hasher == nil {
			return nil, errors.New("password hasher not configured")
		}
		ok, err := s.hasher.Verify(ctx, password, link.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("verify password: %w", err)
		}
		if !ok {
			outcome = "password"
			return nil, ErrPasswordIncorrect
		}
	}

	click := analytics.NewClick(now, cc.IP, cc.UserAgent, cc.Referer)
	if err := s.store.AppendClick(ctx, link.ID, click); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			outcome = "not_found"
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: append click: %w", ErrStorage, err)
	}

	link.Clicks = append(link.Clicks, click)
	link.ClickCount++
	outcome = "ok"
	return link, nil
}

// Analytics returns the link behind identifier with its click summary.
func (s *LinkService) Analytics(ctx context.Context, identifier string) (*model.Link, analytics.Summary, error) {
	link, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, analytics.Summary{}, ErrNotFound
		}
		return nil, analytics.Summary{}, fmt.Errorf("%w: lookup: %w", ErrStorage, err)
	}
	return link, analytics.Aggregate(link, s.now()), nil
}

// List defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListInput defines the admin listing parameters.
type ListInput struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
	Search string
	Tag    string
}

// ListResult is one page of links.
type ListResult struct {
	Links       []*model.Link
	Total       int
	TotalPages  int
	CurrentPage int
}

// List returns a page of links for the admin view.
func (s *LinkService) List(ctx context.Context, in ListInput) (*ListResult, error) {
	q, err := BuildListQuery(in)
	if err != nil {
		return nil, err
	}

	links, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}

	return &ListResult{
		Links:       links,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		CurrentPage: q.Page,
	}, nil
}

// BuildListQuery validates in and turns it into a store query. Zero values
// take the defaults: page 1, limit 10, newest first.
func BuildListQuery(in ListInput) (model.LinkQuery, error) {
	verr := &ValidationError{}

	q := model.LinkQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Sort:  in.SortBy,
		Order: model.SortOrder(strings.ToLower(in.Order)),
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Sort == "" {
		q.Sort = model.FieldCreatedAt
	}
	if q.Order == "" {
		q.Order = model.SortDesc
	}

	limitOK := q.Limit >= 1 && q.Limit <= MaxLimit
	switch {
	case q.Page < 1:
		verr.add("page", "must be a positive integer")
	case limitOK && q.Page > math.MaxInt/q.Limit:
		// the row offset must fit in an int
		verr.add("page", "is out of range")
	}
	if !limitOK {
		verr.add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if !model.SortableFields[q.Sort] {
		verr.add("sortBy", "unsupported sort field")
	}
	if q.Order != model.SortAsc && q.Order != model.SortDesc {
		verr.add("order", "must be asc or desc")
	}
	if err := verr.orNil(); err != nil {
		return model.LinkQuery{}, err
	}

	if search := strings.TrimSpace(in.Search); search != "" {
		q.Any = []model.Filter{
			{Field: model.FieldLongURL, Op: model.OpContains, Value: search},
			{Field: model.FieldShortCode, Op: model.OpContains, Value: search},
			{Field: model.FieldCustomAlias, Op: model.OpContains, Value: search},
		}
	}
	if tag := strings.TrimSpace(in.Tag); tag != "" {
		q.All = append(q.All, model.Filter{Field: model.FieldTags, Op: model.OpHas, Value: tag})
	}

	return q, nil
}

// isClientError reports whether err stems from request input rather than
// from the service or its store.
func isClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAliasInvalid) ||
		errors.Is(err, ErrAliasTaken)
}
