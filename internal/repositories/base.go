package repositories

import (
	"errors"

	apperrors "tableline/internal/errors"

	"gorm.io/gorm"
)

// ===========================================================================
// Repository base types
// Shared by every repository.
// ===========================================================================

// FindOptions controls paging and ordering of list queries.
type FindOptions struct {
	// Offset first row (for paging)
	Offset int

	// Limit max rows
	Limit int

	// OrderBy column to sort by; must be one of the caller's whitelisted columns
	OrderBy string

	// OrderDir "asc" or "desc"
	OrderDir string

	// Filters column = value conditions
	Filters map[string]interface{}
}

// MaxPageSize caps Limit.
const MaxPageSize = 100

// SetDefaults fills unset fields.
func (o *FindOptions) SetDefaults() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.OrderBy == "" {
		o.OrderBy = "created_at"
	}
	if o.OrderDir != "asc" {
		o.OrderDir = "desc"
	}
}

// GetOrderClause returns the ORDER BY expression.
func (o *FindOptions) GetOrderClause() string {
	return o.OrderBy + " " + o.OrderDir
}

// notFound converts gorm's missing-row error into the domain sentinel so
// callers above the repository layer never import gorm.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New(apperrors.ErrNotFound, what+" not found")
	}
	return err
}

// applyFilters adds equality conditions for whitelisted columns.
func applyFilters(query *gorm.DB, filters map[string]interface{}, allowed ...string) *gorm.DB {
	for _, column := range allowed {
		if v, ok := filters[column]; ok {
			query = query.Where(column+" = ?", v)
		}
	}
	return query
}
