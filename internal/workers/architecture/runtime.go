package architecture

import (
	"fmt"
	"math"
	"strconv"

	"crewbuilder/internal/artifact"
)

var baseMinutes = map[artifact.Complexity]float64{
	artifact.ComplexitySimple:   5,
	artifact.ComplexityModerate: 15,
	artifact.ComplexityComplex:  30,
}

// EstimateRuntime is base minutes for the complexity times max(1, agents/4).
// Up to an hour it is rendered in whole minutes, above that in hours with
// at most one decimal.
func EstimateRuntime(c artifact.Complexity, agents int) string {
	base, ok := baseMinutes[c]
	if !ok {
		base = baseMinutes[artifact.ComplexityModerate]
	}
	minutes := base * math.Max(1, float64(agents)/4)
	if minutes <= 60 {
		return fmt.Sprintf("%d minutes", int(math.Round(minutes)))
	}
	hours := math.Round(minutes/60*10) / 10
	return strconv.FormatFloat(hours, 'f', -1, 64) + " hours"
}
