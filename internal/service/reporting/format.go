package reporting

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// FormatDailyReport renders a short plain-text digest suitable for chat
// delivery.
func FormatDailyReport(r *models.DailyReport) string {
	if r.Totals.TotalProductions == 0 {
		return fmt.Sprintf("Production report %s: no records.", r.Date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Production report %s\n", r.Date)
	for _, st := range r.Shifts {
		fmt.Fprintf(&b, "%s: %d entries, %d pieces, %.2f kg\n", st.Shift, st.TotalProductions, st.TotalPieces, st.TotalWeight)
	}
	fmt.Fprintf(&b, "Total: %d entries, %d pieces, %.2f kg", r.Totals.TotalProductions, r.Totals.TotalPieces, r.Totals.TotalWeight)
	return b.String()
}
