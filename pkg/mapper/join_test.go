package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overviewrepo/pkg/query"
)

type accountWithTags struct {
	Account account
	Tags    []*tag
}

var tagOwner = Column("owner", func(t *tag) int32 { return int32(t.Owner) }, func(t *tag, v int32) *tag { t.Owner = int64(v); return t })

func newAccountTagsMapper(t *testing.T) *JoinEntityMapper[account, accountFilter, *tag, struct{}, accountWithTags, accountFilter, int32] {
	return &JoinEntityMapper[account, accountFilter, *tag, struct{}, accountWithTags, accountFilter, int32]{
		First:           newAccountMapper(t),
		Second:          tagMapper,
		On:              JoinOn[account, *tag, int32]{First: accountID, Second: tagOwner},
		DecomposeFilter: FilterToIdenticalAnd[accountFilter, struct{}](nil),
		Compose: func(a account, tags []*tag) accountWithTags {
			return accountWithTags{Account: a, Tags: tags}
		},
		Cardinality: Many,
	}
}

func TestJoinEntityMapper_Validate(t *testing.T) {
	m := newAccountTagsMapper(t)
	require.NoError(t, m.Validate())

	m.Compose = nil
	assert.ErrorIs(t, m.Validate(), ErrInvalidMapper)

	m = newAccountTagsMapper(t)
	m.Cardinality = 0
	assert.ErrorIs(t, m.Validate(), ErrInvalidMapper)

	m = newAccountTagsMapper(t)
	m.On.Second = nil
	assert.ErrorIs(t, m.Validate(), ErrInvalidMapper)
}

func TestJoinEntityMapper_Decompose(t *testing.T) {
	m := newAccountTagsMapper(t)
	f := &accountFilter{Email: "x"}
	page := query.Page(1, 10)

	first, second := m.Decompose(query.New(f, []query.Order{accountEmail.Desc()}, page))
	assert.Same(t, f, first.Filter)
	assert.Equal(t, []query.Order{query.Desc("email")}, first.Order)
	assert.Equal(t, page, first.Pagination)
	assert.Nil(t, second.Filter)
	assert.Nil(t, second.Order)
	assert.Nil(t, second.Pagination, "second side is never paginated")

	m.DecomposeOrder = OrderingToIdenticalAnd(query.Asc("label"))
	_, second = m.Decompose(query.New(f, nil, page))
	assert.Equal(t, []query.Order{query.Asc("label")}, second.Order)
}

func TestCardinality_String(t *testing.T) {
	assert.Equal(t, "one", One.String())
	assert.Equal(t, "many", Many.String())
	assert.Equal(t, "cardinality(7)", Cardinality(7).String())
}
