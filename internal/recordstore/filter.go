package recordstore

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNeq  Op = "!="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpLike Op = "~"
)

// timeLayout is how system timestamps compare against filter strings.
const timeLayout = "2006-01-02 15:04:05.000Z"

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition is one `field op value` term of a filter.
type Condition struct {
	Field string
	Op    Op
	Value any // string, float64 or bool
}

// Filter builds a filter term with a safely quoted string value.
func Filter(field string, op Op, value string) string {
	return fmt.Sprintf("%s %s %s", field, op, quote(value))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// And joins filter terms, skipping empty ones.
func And(terms ...string) string {
	kept := terms[:0:0]
	for _, t := range terms {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " && ")
}

// ParseFilter parses `a = "x" && b >= 2` style filters. An empty filter has no conditions.
func ParseFilter(s string) ([]Condition, error) {
	p := &filterParser{src: s}
	var out []Condition
	p.skipSpace()
	if p.done() {
		return nil, nil
	}
	for {
		c, err := p.condition()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		out = append(out, c)
		p.skipSpace()
		if p.done() {
			return out, nil
		}
		if !strings.HasPrefix(p.rest(), "&&") {
			return nil, fmt.Errorf("%w: expected && at offset %d", ErrInvalidFilter, p.pos)
		}
		p.pos += 2
		p.skipSpace()
	}
}

type filterParser struct {
	src string
	pos int
}

func (p *filterParser) done() bool   { return p.pos >= len(p.src) }
func (p *filterParser) rest() string { return p.src[p.pos:] }

func (p *filterParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *filterParser) condition() (Condition, error) {
	start := p.pos
	for !p.done() && isFieldByte(p.src[p.pos]) {
		p.pos++
	}
	field := p.src[start:p.pos]
	if !fieldPattern.MatchString(field) {
		return Condition{}, fmt.Errorf("bad field name %q", field)
	}

	p.skipSpace()
	op, err := p.operator()
	if err != nil {
		return Condition{}, err
	}

	p.skipSpace()
	val, err := p.value()
	if err != nil {
		return Condition{}, err
	}
	if op == OpLike {
		if _, ok := val.(string); !ok {
			return Condition{}, fmt.Errorf("~ needs a string value")
		}
	}
	return Condition{Field: field, Op: op, Value: val}, nil
}

func (p *filterParser) operator() (Op, error) {
	rest := p.rest()
	for _, op := range []Op{OpNeq, OpGte, OpLte, OpEq, OpGt, OpLt, OpLike} {
		if strings.HasPrefix(rest, string(op)) {
			p.pos += len(op)
			return op, nil
		}
	}
	return "", fmt.Errorf("expected operator at offset %d", p.pos)
}

func (p *filterParser) value() (any, error) {
	if p.done() {
		return nil, fmt.Errorf("missing value")
	}
	if q := p.src[p.pos]; q == '"' || q == '\'' {
		p.pos++
		var b strings.Builder
		for !p.done() {
			ch := p.src[p.pos]
			switch {
			case ch == '\\' && p.pos+1 < len(p.src):
				b.WriteByte(p.src[p.pos+1])
				p.pos += 2
			case ch == q:
				p.pos++
				return b.String(), nil
			default:
				b.WriteByte(ch)
				p.pos++
			}
		}
		return nil, fmt.Errorf("unterminated string")
	}

	start := p.pos
	for !p.done() && p.src[p.pos] != ' ' && p.src[p.pos] != '&' {
		p.pos++
	}
	raw := p.src[start:p.pos]
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("bad literal %q", raw)
	}
	return f, nil
}

func isFieldByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// fieldValue reads a field from a record, including system fields.
func fieldValue(rec Record, field string) any {
	switch field {
	case "id":
		return rec.ID
	case "created":
		return rec.Created.UTC().Format(timeLayout)
	case "updated":
		return rec.Updated.UTC().Format(timeLayout)
	default:
		return rec.Get(field)
	}
}

func (c Condition) match(rec Record) bool {
	stored := fieldValue(rec, c.Field)
	if stored == nil {
		switch c.Value.(type) {
		case string:
			stored = ""
		case float64:
			stored = 0.0
		case bool:
			stored = false
		}
	}

	switch c.Op {
	case OpEq:
		return valuesEqual(stored, c.Value)
	case OpNeq:
		return !valuesEqual(stored, c.Value)
	case OpLike:
		return strings.Contains(strings.ToLower(fmt.Sprint(stored)), strings.ToLower(c.Value.(string)))
	}

	cmp, ok := compareValues(stored, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// compareValues orders two values numerically when the expected side is a
// number, lexically otherwise.
func compareValues(a, b any) (int, bool) {
	if _, isNum := b.(float64); isNum {
		af, ok := toFloat(a)
		if !ok {
			return 0, false
		}
		bf := b.(float64)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

type sortKey struct {
	Field string
	Desc  bool
}

// parseSort reads "-created,name" into sort keys.
func parseSort(s string) ([]sortKey, error) {
	var keys []sortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := sortKey{}
		switch part[0] {
		case '-':
			k.Desc = true
			part = part[1:]
		case '+':
			part = part[1:]
		}
		if !fieldPattern.MatchString(part) {
			return nil, fmt.Errorf("%w: bad sort field %q", ErrInvalidFilter, part)
		}
		k.Field = part
		keys = append(keys, k)
	}
	return keys, nil
}

func sortRecords(recs []Record, keys []sortKey) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range keys {
			c := compareField(recs[i], recs[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareField(a, b Record, field string) int {
	switch field {
	case "created":
		return compareTime(a.Created, b.Created)
	case "updated":
		return compareTime(a.Updated, b.Updated)
	}
	av, bv := fieldValue(a, field), fieldValue(b, field)
	af, aok := toFloat(av)
	bf, bok := toFloat(bv)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(av), fmt.Sprint(bv))
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
