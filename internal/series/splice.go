package series

import (
	"time"

	"MacroSync/internal/domain/models"
)

// Spliced is the result of stitching two physical series into one logical one.
// Cutover is the earliest date at which the primary has a value; it is kept
// for diagnostics only and never gates which branch is chosen.
type Spliced struct {
	Series     models.Series
	Cutover    time.Time
	HasCutover bool
}

// Splice merges two series that represent the same logical instrument across
// a source cutover. For each date present in either input the primary value
// wins; the fallback fills only dates the primary lacks. This is a precedence
// rule, not an average: a primary value back-published before its official
// start is still honored.
func Splice(primary, fallback models.Series) Spliced {
	var out models.Series
	for _, p := range fallback.Points {
		out.Set(p.Date, p.Value)
	}
	for _, p := range primary.Points {
		out.Set(p.Date, p.Value)
	}

	res := Spliced{Series: out}
	if first, ok := primary.First(); ok {
		res.Cutover = first.Date
		res.HasCutover = true
	}
	return res
}
