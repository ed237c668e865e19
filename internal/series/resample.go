package series

import (
	"time"

	"MacroSync/internal/domain/models"
)

// MonthLast folds a higher-frequency series onto the monthly timeline,
// keeping the last observation of each calendar month. Output dates follow
// the monthly convention (first day of month). Used for daily policy rates
// entering a monthly table.
func MonthLast(s models.Series) models.Series {
	var out models.Series
	for _, p := range s.Points {
		// points arrive sorted, so a later set overwrites the earlier one
		m := time.Date(p.Date.Year(), p.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		out.Set(m, p.Value)
	}
	return out
}
