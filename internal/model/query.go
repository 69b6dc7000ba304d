package model

// Field names accepted by LinkQuery filters and sorts.
const (
	FieldLongURL     = "longUrl"
	FieldShortCode   = "shortCode"
	FieldCustomAlias = "customAlias"
	FieldTags        = "tags"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldClickCount  = "clickCount"
	FieldExpiresAt   = "expiresAt"
)

// Operator is a comparison applied by a Filter.
type Operator string

const (
	// OpContains matches a case-insensitive substring.
	OpContains Operator = "contains"
	// OpHas matches membership in an array field.
	OpHas Operator = "has"
	// OpEquals matches an exact value.
	OpEquals Operator = "eq"
)

// Filter is one field/operator/value predicate.
type Filter struct {
	Field string
	Op    Operator
	Value string
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// LinkQuery describes an admin listing in store-neutral terms.
//
// All is a conjunction of predicates; Any is a disjunction. A link matches
// when every predicate in All holds and, if Any is non-empty, at least one
// predicate in Any holds.
type LinkQuery struct {
	All   []Filter
	Any   []Filter
	Sort  string
	Order SortOrder
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before the requested page.
func (q LinkQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// SortableFields lists the fields a LinkQuery may sort by.
var SortableFields = map[string]bool{
	FieldCreatedAt:  true,
	FieldUpdatedAt:  true,
	FieldClickCount: true,
	FieldLongURL:    true,
	FieldShortCode:  true,
	FieldExpiresAt:  true,
}
