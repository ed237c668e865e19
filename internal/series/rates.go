package series

import "MacroSync/internal/domain/models"

// Rates holds the derived percentage-change series of one level series.
type Rates struct {
	YoY models.Series
	PoP models.Series
}

// ToRates derives year-over-year and period-over-period percent changes
// from a level series. YoY at index i needs the observation periodsPerYear
// positions earlier; PoP uses an offset of one. Indices without enough
// history are absent from the output, never zero. The input must be sorted
// ascending with unique dates, which the period normalizer guarantees.
func ToRates(level models.Series, periodsPerYear int) Rates {
	return Rates{
		YoY: pctChange(level, periodsPerYear),
		PoP: pctChange(level, 1),
	}
}

func pctChange(level models.Series, offset int) models.Series {
	var out models.Series
	if offset <= 0 {
		return out
	}
	for i := offset; i < len(level.Points); i++ {
		base := level.Points[i-offset].Value
		if base == 0 {
			continue
		}
		p := level.Points[i]
		out.Set(p.Date, (p.Value/base-1)*100)
	}
	return out
}
