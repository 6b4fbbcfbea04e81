package recordstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const recordColumns = `id, collection, data, created, updated`

// PostgresStore keeps every collection in one `records` table with a jsonb
// data column. See migrations/ for the schema.
type PostgresStore struct {
	db     *sqlx.DB
	schema Schema
}

func NewPostgresStore(db *sqlx.DB, schema Schema) *PostgresStore {
	return &PostgresStore{db: db, schema: schema}
}

type recordRow struct {
	ID         string    `db:"id"`
	Collection string    `db:"collection"`
	Data       []byte    `db:"data"`
	Created    time.Time `db:"created"`
	Updated    time.Time `db:"updated"`
}

func (r recordRow) toRecord() (Record, error) {
	rec := Record{ID: r.ID, Collection: r.Collection, Created: r.Created, Updated: r.Updated, Data: map[string]any{}}
	if len(r.Data) == 0 {
		return rec, nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	if err := dec.Decode(&rec.Data); err != nil {
		return Record{}, fmt.Errorf("decode %s/%s: %w", r.Collection, r.ID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, fields map[string]any) (Record, error) {
	if collection == "" {
		return Record{}, fmt.Errorf("%w: empty collection", ErrValidation)
	}
	data, id, err := encodeFields(fields)
	if err != nil {
		return Record{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	var row recordRow
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO records (id, collection, data, created, updated)
		VALUES ($1, $2, $3::jsonb, now(), now())
		RETURNING `+recordColumns,
		id, collection, data).StructScan(&row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, fmt.Errorf("%w: duplicate id %s", ErrValidation, id)
		}
		return Record{}, fmt.Errorf("create %s: %w", collection, err)
	}
	return row.toRecord()
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) (Record, error) {
	return s.UpdateIf(ctx, collection, id, nil, fields)
}

func (s *PostgresStore) UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) (Record, error) {
	data, _, err := encodeFields(fields)
	if err != nil {
		return Record{}, err
	}

	query := `UPDATE records SET data = data || $3::jsonb, updated = now()
		WHERE collection = $1 AND id = $2`
	args := []any{collection, id, data}
	contains, unset, err := splitExpect(expect)
	if err != nil {
		return Record{}, err
	}
	if len(contains) > 0 {
		want, err := json.Marshal(contains)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		query += ` AND data @> $4::jsonb`
		args = append(args, string(want))
	}
	for _, field := range unset {
		query += ` AND coalesce((data->>'` + field + `')::boolean, false) = false`
	}
	query += ` RETURNING ` + recordColumns

	var row recordRow
	err = s.db.QueryRowxContext(ctx, query, args...).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		if len(expect) == 0 {
			return Record{}, ErrNotFound
		}
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM records WHERE collection = $1 AND id = $2)`, collection, id); err != nil {
			return Record{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		if exists {
			return Record{}, ErrConflict
		}
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return row.toRecord()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetOne(ctx context.Context, collection, id, expand string) (Record, error) {
	rec, err := s.get(ctx, collection, id)
	if err != nil {
		return Record{}, err
	}
	if err := s.schema.expandRecord(ctx, s.get, &rec, parseExpand(expand)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) get(ctx context.Context, collection, id string) (Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+recordColumns+` FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return row.toRecord()
}

func (s *PostgresStore) List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (ListResult, error) {
	conds, err := ParseFilter(opts.Filter)
	if err != nil {
		return ListResult{}, err
	}
	keys, err := parseSort(opts.Sort)
	if err != nil {
		return ListResult{}, err
	}
	page, perPage = normalizePaging(page, perPage)

	where, args := compileConditions(conds, []any{collection})

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT count(*) FROM records WHERE `+where, args...); err != nil {
		return ListResult{}, fmt.Errorf("count %s: %w", collection, err)
	}

	res := ListResult{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages(total, perPage),
		Items:      []Record{},
	}
	if total == 0 || (page-1)*perPage >= total {
		return res, nil
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM records WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		recordColumns, where, orderBy(keys), len(args)-1, len(args))

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", collection, err)
	}

	paths := parseExpand(opts.Expand)
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return ListResult{}, err
		}
		if err := s.schema.expandRecord(ctx, s.get, &rec, paths); err != nil {
			return ListResult{}, err
		}
		res.Items = append(res.Items, rec)
	}
	return res, nil
}

func encodeFields(fields map[string]any) (string, string, error) {
	data := make(map[string]any, len(fields))
	var id string
	for k, v := range fields {
		if k == "id" {
			id, _ = v.(string)
			continue
		}
		data[k] = v
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return string(b), id, nil
}

// compileConditions renders conditions as SQL appended to `collection = $1`.
// Field names are validated by the parser, so inlining them is safe.
func compileConditions(conds []Condition, args []any) (string, []any) {
	clauses := []string{"collection = $1"}
	for _, c := range conds {
		args = append(args, conditionArg(c))
		n := len(args)
		col := textExpr(c.Field)

		switch c.Value.(type) {
		case string:
			switch {
			case c.Op == OpLike:
				clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", col, n))
			case c.Field == "created" || c.Field == "updated":
				clauses = append(clauses, fmt.Sprintf("%s %s $%d::timestamptz", c.Field, sqlOp(c.Op), n))
			default:
				clauses = append(clauses, fmt.Sprintf("coalesce(%s, '') %s $%d", col, sqlOp(c.Op), n))
			}
		case float64:
			clauses = append(clauses, fmt.Sprintf("coalesce((%s)::numeric, 0) %s $%d", col, sqlOp(c.Op), n))
		case bool:
			clauses = append(clauses, fmt.Sprintf("coalesce((%s)::boolean, false) %s $%d", col, sqlOp(c.Op), n))
		}
	}
	return strings.Join(clauses, " AND "), args
}

// splitExpect separates false flags, which must also match a record lacking
// the field, from values checked by jsonb containment.
func splitExpect(expect map[string]any) (map[string]any, []string, error) {
	contains := make(map[string]any, len(expect))
	var unset []string
	for k, v := range expect {
		if b, ok := v.(bool); ok && !b {
			if k == "" || strings.IndexFunc(k, func(r rune) bool { return r > 127 || !isFieldByte(byte(r)) }) >= 0 {
				return nil, nil, fmt.Errorf("%w: field %q", ErrValidation, k)
			}
			unset = append(unset, k)
			continue
		}
		contains[k] = v
	}
	sort.Strings(unset)
	return contains, unset, nil
}

func conditionArg(c Condition) any {
	if s, ok := c.Value.(string); ok && c.Op == OpLike {
		r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
		return "%" + r.Replace(s) + "%"
	}
	return c.Value
}

func textExpr(field string) string {
	switch field {
	case "id":
		return "id"
	case "created", "updated":
		return field + "::text"
	default:
		return "data->>'" + field + "'"
	}
}

func sqlOp(op Op) string {
	if op == OpNeq {
		return "<>"
	}
	return string(op)
}

func orderBy(keys []sortKey) string {
	if len(keys) == 0 {
		return "created, id"
	}
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		expr := "data->'" + k.Field + "'"
		switch k.Field {
		case "id", "created", "updated":
			expr = k.Field
		}
		if k.Desc {
			expr += " DESC"
		}
		parts = append(parts, expr)
	}
	return strings.Join(append(parts, "id"), ", ")
}
