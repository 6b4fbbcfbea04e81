package recordstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	conds, err := ParseFilter(`userID = "u1" && quantity >= 2 && statusPayment = false && name ~ 'cat'`)
	require.NoError(t, err)
	require.Len(t, conds, 4)

	assert.Equal(t, Condition{Field: "userID", Op: OpEq, Value: "u1"}, conds[0])
	assert.Equal(t, Condition{Field: "quantity", Op: OpGte, Value: 2.0}, conds[1])
	assert.Equal(t, Condition{Field: "statusPayment", Op: OpEq, Value: false}, conds[2])
	assert.Equal(t, Condition{Field: "name", Op: OpLike, Value: "cat"}, conds[3])
}

func TestParseFilter_Empty(t *testing.T) {
	conds, err := ParseFilter("   ")
	require.NoError(t, err)
	assert.Empty(t, conds)
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, f := range []string{
		`userID`,
		`userID = `,
		`userID = "u1" || name = "x"`,
		`user-id = "x"`,
		`name ~ 3`,
		`name = "unterminated`,
		`qty = abc`,
	} {
		_, err := ParseFilter(f)
		assert.ErrorIs(t, err, ErrInvalidFilter, f)
	}
}

func TestFilterQuotesValues(t *testing.T) {
	f := Filter("name", OpEq, `say "hi" \o/`)
	conds, err := ParseFilter(f)
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, `say "hi" \o/`, conds[0].Value)
}

func TestAnd_SkipsEmptyTerms(t *testing.T) {
	assert.Equal(t, `a = "1" && b = "2"`, And(`a = "1"`, "", `b = "2"`))
	assert.Equal(t, "", And())
}

func TestParseSort(t *testing.T) {
	keys, err := parseSort("-created, name,+price")
	require.NoError(t, err)
	assert.Equal(t, []sortKey{{Field: "created", Desc: true}, {Field: "name"}, {Field: "price"}}, keys)

	_, err = parseSort("-na;me")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
