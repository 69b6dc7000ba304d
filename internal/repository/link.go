package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/snipurl/snip/internal/model"
)

const linkColumns = `id, long_url, short_code, custom_alias, click_count, clicks, expires_at,
	is_active, qr_code, tags, created_by, password_hash, created_at, updated_at`

// listColumns omits the click log and password hash, which listings never
// expose. Only the presence of a hash is selected.
const listColumns = `id, long_url, short_code, custom_alias, click_count, expires_at,
	is_active, qr_code, tags, created_by, password_hash IS NOT NULL AS has_password,
	created_at, updated_at`

// columnFor maps LinkQuery field names to columns. Anything else is rejected.
var columnFor = map[string]string{
	model.FieldLongURL:     "long_url",
	model.FieldShortCode:   "short_code",
	model.FieldCustomAlias: "custom_alias",
	model.FieldTags:        "tags",
	model.FieldCreatedAt:   "created_at",
	model.FieldUpdatedAt:   "updated_at",
	model.FieldClickCount:  "click_count",
	model.FieldExpiresAt:   "expires_at",
}

// Insert stores a new link and fills in the store-assigned timestamps.
func (r *Repository) Insert(ctx context.Context, link *model.Link) error {
	clicks, err := json.Marshal(nonNilClicks(link.Clicks))
	if err != nil {
		return fmt.Errorf("encode clicks: %w", err)
	}

	query := `
		INSERT INTO links (id, long_url, short_code, custom_alias, click_count, clicks, expires_at,
			is_active, qr_code, tags, created_by, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		link.ID,
		link.LongURL,
		link.ShortCode,
		nullIfEmpty(link.CustomAlias),
		link.ClickCount,
		string(clicks),
		link.ExpiresAt,
		link.IsActive,
		link.QRCode,
		pq.Array(nonNilTags(link.Tags)),
		link.CreatedBy,
		nullIfEmpty(link.PasswordHash),
	).Scan(&link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}

	return nil
}

// GetByIdentifier returns the link whose short code (and therefore alias)
// equals identifier, regardless of its active flag.
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.pool.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by identifier: %w", err)
	}

	return link, nil
}

// IdentifierExists reports whether identifier is already taken.
func (r *Repository) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1 OR custom_alias = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, identifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check identifier existence: %w", err)
	}

	return exists, nil
}

// FindReusable returns the oldest plain link (no alias, expiry or password)
// for longURL created by createdBy.
func (r *Repository) FindReusable(ctx context.Context, longURL, createdBy string) (*model.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE long_url = $1
		  AND created_by = $2
		  AND is_active
		  AND custom_alias IS NULL
		  AND expires_at IS NULL
		  AND password_hash IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	link, err := scanLink(r.pool.QueryRow(ctx, query, longURL, createdBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reusable link: %w", err)
	}

	return link, nil
}

// AppendClick records one click and bumps the counter in a single statement.
func (r *Repository) AppendClick(ctx context.Context, id string, click model.ClickEvent) error {
	payload, err := json.Marshal([]model.ClickEvent{click})
	if err != nil {
		return fmt.Errorf("encode click: %w", err)
	}

	query := `
		UPDATE links
		SET clicks = clicks || $2::jsonb,
		    click_count = click_count + 1,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, string(payload))
	if err != nil {
		return fmt.Errorf("failed to append click: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns one page of links matching q and the total match count.
func (r *Repository) List(ctx context.Context, q model.LinkQuery) ([]*model.Link, int, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM links` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	sortCol, ok := columnFor[q.Sort]
	if !ok || !model.SortableFields[q.Sort] {
		sortCol = "created_at"
	}
	dir := "DESC"
	if q.Order == model.SortAsc {
		dir = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM links%s ORDER BY %s %s NULLS LAST, id %s LIMIT $%d OFFSET $%d`,
		listColumns, where, sortCol, dir, dir, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]*model.Link, 0, q.Limit)
	for rows.Next() {
		link, err := scanListedLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating links: %w", err)
	}

	return links, total, nil
}

// DeleteExpired removes links whose expiry lies before now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM links WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", err)
	}
	return result.RowsAffected(), nil
}

// buildWhere renders q's filters as a WHERE clause with positional args.
func buildWhere(q model.LinkQuery) (string, []any, error) {
	var args []any

	render := func(filters []model.Filter) ([]string, error) {
		clauses := make([]string, 0, len(filters))
		for _, f := range filters {
			col, ok := columnFor[f.Field]
			if !ok {
				return nil, fmt.Errorf("unsupported filter field %q", f.Field)
			}
			switch f.Op {
			case model.OpContains:
				args = append(args, escapeLike(f.Value))
				clauses = append(clauses, fmt.Sprintf(`%s ILIKE '%%' || $%d || '%%'`, col, len(args)))
			case model.OpHas:
				args = append(args, f.Value)
				clauses = append(clauses, fmt.Sprintf(`$%d = ANY(%s)`, len(args), col))
			case model.OpEquals:
				args = append(args, f.Value)
				clauses = append(clauses, fmt.Sprintf(`%s = $%d`, col, len(args)))
			default:
				return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
			}
		}
		return clauses, nil
	}

	all, err := render(q.All)
	if err != nil {
		return "", nil, err
	}

	anyOf, err := render(q.Any)
	if err != nil {
		return "", nil, err
	}
	if len(anyOf) > 0 {
		all = append(all, "("+strings.Join(anyOf, " OR ")+")")
	}

	if len(all) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(all, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// scanLink scans a full row into a Link model.
func scanLink(row pgx.Row) (*model.Link, error) {
	var (
		link         model.Link
		customAlias  *string
		passwordHash *string
		clicks       []byte
	)
	err := row.Scan(
		&link.ID,
		&link.LongURL,
		&link.ShortCode,
		&customAlias,
		&link.ClickCount,
		&clicks,
		&link.ExpiresAt,
		&link.IsActive,
		&link.QRCode,
		pq.Array(&link.Tags),
		&link.CreatedBy,
		&passwordHash,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(clicks, &link.Clicks); err != nil {
		return nil, fmt.Errorf("decode clicks: %w", err)
	}
	link.CustomAlias = deref(customAlias)
	link.PasswordHash = deref(passwordHash)
	return &link, nil
}

// scanListedLink scans a listColumns row.
func scanListedLink(rows pgx.Rows) (*model.Link, error) {
	var (
		link        model.Link
		customAlias *string
	)
	err := rows.Scan(
		&link.ID,
		&link.LongURL,
		&link.ShortCode,
		&customAlias,
		&link.ClickCount,
		&link.ExpiresAt,
		&link.IsActive,
		&link.QRCode,
		pq.Array(&link.Tags),
		&link.CreatedBy,
		&link.Protected,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	link.CustomAlias = deref(customAlias)
	return &link, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilClicks(clicks []model.ClickEvent) []model.ClickEvent {
	if clicks == nil {
		return []model.ClickEvent{}
	}
	return clicks
}
