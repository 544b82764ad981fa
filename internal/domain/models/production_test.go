package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecomputeTotalWeight(t *testing.T) {
	p := Production{PieceWeight: 2.5, TotalPieces: 10, TotalWeight: 999}
	p.RecomputeTotalWeight()
	assert.Equal(t, 25.0, p.TotalWeight)
}

func TestProductionQuery_ScopeNarrowsFilter(t *testing.T) {
	self := primitive.NewObjectID()
	other := primitive.NewObjectID()

	q := ProductionQuery{
		Filter: ProductionFilter{OperatorID: &other},
		Scope:  ProductionScope{OperatorID: &self},
	}

	assert.False(t, q.Matches(Production{OperatorID: other}), "scope must win over caller filter")
	assert.False(t, q.Matches(Production{OperatorID: self}), "caller filter still applies")
}

func TestProductionQuery_MachineScope(t *testing.T) {
	m1 := primitive.NewObjectID()
	m2 := primitive.NewObjectID()
	q := ProductionQuery{Scope: ProductionScope{MachineIDs: []primitive.ObjectID{m1}}}

	assert.True(t, q.Matches(Production{MachineID: m1}))
	assert.False(t, q.Matches(Production{MachineID: m2}))

	empty := ProductionQuery{Scope: ProductionScope{MachineIDs: []primitive.ObjectID{}}}
	assert.False(t, empty.Matches(Production{MachineID: m1}), "non-nil empty set admits nothing")
}

func TestProductionQuery_DateBoundsInclusive(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	q := ProductionQuery{Filter: ProductionFilter{From: &from, To: &to, Shift: ShiftNight}}

	assert.True(t, q.Matches(Production{Date: from, Shift: ShiftNight}))
	assert.True(t, q.Matches(Production{Date: to, Shift: ShiftNight}))
	assert.False(t, q.Matches(Production{Date: to.Add(time.Millisecond), Shift: ShiftNight}))
	assert.False(t, q.Matches(Production{Date: from, Shift: ShiftMorning}))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 2, Limit: 20, Total: 41, Pages: 3}, NewPagination(2, 20, 41))
	assert.Equal(t, int64(0), NewPagination(1, 20, 0).Pages)
	assert.Equal(t, 20, ProductionQuery{Page: 2, Limit: 20}.Skip())
}
