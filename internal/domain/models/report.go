package models

import "time"

// Totals is a count/weight/pieces triple.
type Totals struct {
	TotalProductions int64   `bson:"totalProductions" json:"totalProductions"`
	TotalWeight      float64 `bson:"totalWeight" json:"totalWeight"`
	TotalPieces      int64   `bson:"totalPieces" json:"totalPieces"`
}

// ShiftTotals groups totals for one shift.
type ShiftTotals struct {
	Shift  Shift `bson:"_id" json:"shift"`
	Totals `bson:",inline"`
}

// Summary is the dashboard overview across all data.
type Summary struct {
	Totals
	TotalOperators int64 `json:"totalOperators"`
	TotalMachines  int64 `json:"totalMachines"`
}

// DailyReport lists one calendar day of production with per-shift totals.
type DailyReport struct {
	Date        string           `json:"date"`
	Productions []ProductionView `json:"productions"`
	Shifts      []ShiftTotals    `json:"summary"`
	Totals      Totals           `json:"totals"`
}

// MachineStats extends totals with the average weight per record.
type MachineStats struct {
	Totals
	AverageWeight float64 `json:"averageWeight"`
}

// MachineReport covers one machine over a date range.
type MachineReport struct {
	MachineID   string           `json:"machineId"`
	StartDate   time.Time        `json:"startDate"`
	EndDate     time.Time        `json:"endDate"`
	Productions []ProductionView `json:"productions"`
	Stats       MachineStats     `json:"stats"`
}

// DailyReportSnapshot is the persisted copy of a day's totals.
type DailyReportSnapshot struct {
	Date      time.Time     `bson:"date" json:"date"`
	Day       string        `bson:"day" json:"day"`
	Shifts    []ShiftTotals `bson:"shifts" json:"shifts"`
	Totals    Totals        `bson:"totals" json:"totals"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}
