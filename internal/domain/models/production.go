package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift is the production period a record belongs to.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
	ShiftNight   Shift = "night"
)

// Shifts lists the shifts in reporting order.
var Shifts = []Shift{ShiftMorning, ShiftEvening, ShiftNight}

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// Production is one production entry for a machine and operator.
// TotalWeight is always PieceWeight * TotalPieces once saved.
type Production struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MachineID        primitive.ObjectID  `bson:"machineId" json:"machineId"`
	OperatorID       primitive.ObjectID  `bson:"operatorId" json:"operatorId"`
	SupervisorID     *primitive.ObjectID `bson:"supervisorId,omitempty" json:"supervisorId,omitempty"`
	ProductName      string              `bson:"productName" json:"productName"`
	ContractQuantity int                 `bson:"contractQuantity" json:"contractQuantity"`
	PieceWeight      float64             `bson:"pieceWeight" json:"pieceWeight"`
	TotalPieces      int                 `bson:"totalPieces" json:"totalPieces"`
	TotalWeight      float64             `bson:"totalWeight" json:"totalWeight"`
	Shift            Shift               `bson:"shift" json:"shift"`
	MeterReading     *float64            `bson:"meterReading,omitempty" json:"meterReading,omitempty"`
	MeterConsumption *float64            `bson:"meterConsumption,omitempty" json:"meterConsumption,omitempty"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Date             time.Time           `bson:"date" json:"date"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RecomputeTotalWeight restores the derived weight. Call before every write.
func (p *Production) RecomputeTotalWeight() {
	p.TotalWeight = p.PieceWeight * float64(p.TotalPieces)
}

// SupervisedBy reports whether id is the record's supervisor.
func (p Production) SupervisedBy(id primitive.ObjectID) bool {
	return p.SupervisorID != nil && *p.SupervisorID == id
}

// ProductionFilter holds the filters a caller asked for.
type ProductionFilter struct {
	MachineID  *primitive.ObjectID
	OperatorID *primitive.ObjectID
	Shift      Shift
	From       *time.Time
	To         *time.Time
}

// ProductionScope is the role-derived restriction. It is ANDed with the
// caller's filter and can only remove rows.
type ProductionScope struct {
	OperatorID *primitive.ObjectID
	// MachineIDs restricts rows to these machines when non-nil.
	MachineIDs []primitive.ObjectID
}

// Unrestricted reports whether the scope lets every row through.
func (s ProductionScope) Unrestricted() bool {
	return s.OperatorID == nil && s.MachineIDs == nil
}

// Admits reports whether p falls inside the scope.
func (s ProductionScope) Admits(p Production) bool {
	if s.OperatorID != nil && p.OperatorID != *s.OperatorID {
		return false
	}
	if s.MachineIDs != nil && !containsID(s.MachineIDs, p.MachineID) {
		return false
	}
	return true
}

// ProductionSort selects the ordering of a production listing.
type ProductionSort int

const (
	// SortNewestFirst orders by date then creation time, newest first.
	SortNewestFirst ProductionSort = iota
	// SortByShift orders by shift name.
	SortByShift
)

// ProductionQuery is a scoped production lookup. A zero Limit returns every
// matching row.
type ProductionQuery struct {
	Filter ProductionFilter
	Scope  ProductionScope
	Sort   ProductionSort
	Page   int
	Limit  int
}

// Skip returns the number of rows before the requested page.
func (q ProductionQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Matches reports whether p satisfies both the filter and the scope.
func (q ProductionQuery) Matches(p Production) bool {
	f := q.Filter
	if f.MachineID != nil && p.MachineID != *f.MachineID {
		return false
	}
	if f.OperatorID != nil && p.OperatorID != *f.OperatorID {
		return false
	}
	if f.Shift != "" && p.Shift != f.Shift {
		return false
	}
	if f.From != nil && p.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && p.Date.After(*f.To) {
		return false
	}
	return q.Scope.Admits(p)
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination computes the page count, rounding up.
func NewPagination(page, limit int, total int64) Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// MachineRef is the embedded machine summary on production responses.
type MachineRef struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Code    string             `json:"code"`
	Tonnage float64            `json:"tonnage"`
}

// UserRef is the embedded user summary on production responses.
type UserRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// ProductionView is a production with its references resolved.
type ProductionView struct {
	Production
	Machine    *MachineRef `json:"machine,omitempty"`
	Operator   *UserRef    `json:"operator,omitempty"`
	Supervisor *UserRef    `json:"supervisor,omitempty"`
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
