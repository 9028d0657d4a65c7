package analytics

import (
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

// markovStates orders drought states from least to most severe; the index is
// the matrix row/column.
var markovStates = []string{
	models.StateNormal,
	models.StateMild,
	models.StateModerate,
	models.StateSevere,
	models.StateExtreme,
}

const numStates = 5

// StateFromSPI maps an SPI value to a Markov drought state using the cut
// points (-0.5, -1.0, -1.5, -2.0). Boundaries belong to the more severe
// state, mirroring risk classification.
func StateFromSPI(spi float64) string {
	switch {
	case spi > -0.5:
		return models.StateNormal
	case spi > -1.0:
		return models.StateMild
	case spi > -1.5:
		return models.StateModerate
	case spi > -2.0:
		return models.StateSevere
	default:
		return models.StateExtreme
	}
}

func stateIndex(state string) int {
	for i, s := range markovStates {
		if s == state {
			return i
		}
	}
	return 0
}

// TransitionMatrix is a fitted month-to-month drought state transition
// matrix. Every row sums to 1.
type TransitionMatrix struct {
	p [numStates][numStates]float64
}

// FitMarkov estimates the transition matrix by MLE on consecutive-month
// state counts. Rows for states that never occurred are left uniform.
func FitMarkov(series []float64) (TransitionMatrix, error) {
	if len(series) < 2 {
		return TransitionMatrix{}, apperr.E(apperr.ErrMissingData, "analytics.FitMarkov",
			"need at least 2 samples to count transitions")
	}

	var counts [numStates][numStates]int
	for i := 1; i < len(series); i++ {
		from := stateIndex(StateFromSPI(series[i-1]))
		to := stateIndex(StateFromSPI(series[i]))
		counts[from][to]++
	}

	var m TransitionMatrix
	for i := 0; i < numStates; i++ {
		total := 0
		for j := 0; j < numStates; j++ {
			total += counts[i][j]
		}
		if total == 0 {
			for j := 0; j < numStates; j++ {
				m.p[i][j] = 1.0 / numStates
			}
			continue
		}
		for j := 0; j < numStates; j++ {
			m.p[i][j] = float64(counts[i][j]) / float64(total)
		}
	}
	return m, nil
}

// Row returns the transition probabilities out of a state.
func (t TransitionMatrix) Row(state string) [numStates]float64 {
	return t.p[stateIndex(state)]
}

// Prob is P(target | current, steps) via matrix power.
func (t TransitionMatrix) Prob(current, target string, steps int) float64 {
	if steps < 1 {
		steps = 1
	}
	powered := t.power(steps)
	return powered.p[stateIndex(current)][stateIndex(target)]
}

// ProbWorsening is the probability of ending in any strictly worse state
// after the given number of steps.
func (t TransitionMatrix) ProbWorsening(current string, steps int) float64 {
	powered := t.power(steps)
	row := powered.p[stateIndex(current)]
	var sum float64
	for j := stateIndex(current) + 1; j < numStates; j++ {
		sum += row[j]
	}
	return sum
}

func (t TransitionMatrix) power(steps int) TransitionMatrix {
	result := t
	for s := 1; s < steps; s++ {
		result = result.multiply(t)
	}
	return result
}

func (t TransitionMatrix) multiply(o TransitionMatrix) TransitionMatrix {
	var out TransitionMatrix
	for i := 0; i < numStates; i++ {
		for j := 0; j < numStates; j++ {
			var sum float64
			for k := 0; k < numStates; k++ {
				sum += t.p[i][k] * o.p[k][j]
			}
			out.p[i][j] = sum
		}
	}
	return out
}
