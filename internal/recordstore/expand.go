package recordstore

import (
	"context"
	"errors"
	"strings"
)

// Schema maps collection -> relation field -> target collection.
type Schema map[string]map[string]string

// Target returns the collection a relation field points at.
func (s Schema) Target(collection, field string) (string, bool) {
	rels, ok := s[collection]
	if !ok {
		return "", false
	}
	target, ok := rels[field]
	return target, ok
}

type fetchFunc func(ctx context.Context, collection, id string) (Record, error)

// parseExpand splits "cartID.productID,userID" into relation paths.
func parseExpand(expand string) [][]string {
	var paths [][]string
	for _, part := range strings.Split(expand, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		paths = append(paths, strings.Split(part, "."))
	}
	return paths
}

// expandRecord resolves every path on rec. Relations that point at missing
// records stay unexpanded; other fetch errors abort.
func (s Schema) expandRecord(ctx context.Context, fetch fetchFunc, rec *Record, paths [][]string) error {
	for _, path := range paths {
		if err := s.expandPath(ctx, fetch, rec, path); err != nil {
			return err
		}
	}
	return nil
}

func (s Schema) expandPath(ctx context.Context, fetch fetchFunc, rec *Record, path []string) error {
	if len(path) == 0 {
		return nil
	}
	field := path[0]
	target, ok := s.Target(rec.Collection, field)
	if !ok {
		return nil
	}
	id := rec.String(field)
	if id == "" {
		return nil
	}

	rel, already := rec.Expanded(field)
	if !already {
		var err error
		rel, err = fetch(ctx, target, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := s.expandPath(ctx, fetch, &rel, path[1:]); err != nil {
		return err
	}
	if rec.Expand == nil {
		rec.Expand = make(map[string]Record)
	}
	rec.Expand[field] = rel
	return nil
}
