// Package recordstore is the generic record store the storefront services are
// built on: named collections of schemaless records with filtering, sorting and
// relation expansion.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record changed concurrently")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrValidation    = errors.New("invalid record")
)

// Store is the capability set every storefront service consumes.
type Store interface {
	Create(ctx context.Context, collection string, fields map[string]any) (Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (Record, error)
	// UpdateIf applies fields only when the stored record holds every value in
	// expect. A mismatch returns ErrConflict.
	UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) (Record, error)
	Delete(ctx context.Context, collection, id string) error
	GetOne(ctx context.Context, collection, id, expand string) (Record, error)
	List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (ListResult, error)
}

// ListOptions narrows and shapes a List call.
type ListOptions struct {
	Filter string
	Sort   string
	Expand string
}

// ListResult is one page of records.
type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// Record is a stored row plus any relations expanded into it.
type Record struct {
	ID         string
	Collection string
	Created    time.Time
	Updated    time.Time
	Data       map[string]any
	Expand     map[string]Record
}

// Get returns the raw field value.
func (r Record) Get(field string) any {
	if r.Data == nil {
		return nil
	}
	return r.Data[field]
}

func (r Record) String(field string) string {
	switch v := r.Get(field).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Int(field string) int {
	n, _ := toFloat(r.Get(field))
	return int(n)
}

func (r Record) Bool(field string) bool {
	switch v := r.Get(field).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Decimal reads money fields stored either as JSON numbers or decimal strings.
func (r Record) Decimal(field string) decimal.Decimal {
	switch v := r.Get(field).(type) {
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	default:
		return decimal.Zero
	}
}

// Expanded returns the related record expanded under field, if any.
func (r Record) Expanded(field string) (Record, bool) {
	if r.Expand == nil {
		return Record{}, false
	}
	rel, ok := r.Expand[field]
	return rel, ok
}

// MarshalJSON flattens the record the way the storefront clients expect:
// system fields and data side by side, relations under "expand".
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+5)
	for k, v := range r.Data {
		out[k] = v
	}
	out["id"] = r.ID
	out["collectionName"] = r.Collection
	out["created"] = r.Created
	out["updated"] = r.Updated
	if len(r.Expand) > 0 {
		out["expand"] = r.Expand
	}
	return json.Marshal(out)
}

// clone copies the data map so callers cannot mutate stored state.
func (r Record) clone() Record {
	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	r.Data = data
	r.Expand = nil
	return r
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// valuesEqual compares stored and expected values loosely: numbers by value,
// everything else by its string form.
func valuesEqual(stored, expected any) bool {
	// an absent flag reads as false everywhere else, so it matches false here too
	if stored == nil {
		if eb, ok := expected.(bool); ok {
			return !eb
		}
	}
	if sf, ok := toFloat(stored); ok {
		if ef, ok := toFloat(expected); ok {
			if _, isStr := stored.(string); !isStr {
				return sf == ef
			}
		}
	}
	if sb, ok := stored.(bool); ok {
		eb, ok := expected.(bool)
		return ok && sb == eb
	}
	return fmt.Sprint(stored) == fmt.Sprint(expected)
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	if perPage > 500 {
		perPage = 500
	}
	return page, perPage
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
