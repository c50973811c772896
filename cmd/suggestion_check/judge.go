package main

import (
	"strings"

	"youtrait/internal/domain"
)

// scoreResult resume cuánto se parece una tanda de sugerencias a lo esperado.
type scoreResult struct {
	Score      float64
	Missing    []string
	Leaked     []string
	OutOfRange int
}

func (r scoreResult) Passed() bool {
	return len(r.Missing) == 0 && len(r.Leaked) == 0 && r.OutOfRange == 0
}

// scoreScenario da la fracción de palabras esperadas presentes, con cero
// si aparece alguna prohibida.
func scoreScenario(sc Scenario, got []domain.Suggestion) scoreResult {
	words := make(map[string]struct{}, len(got))
	var res scoreResult
	for _, s := range got {
		words[strings.ToLower(s.SuggestedTrait)] = struct{}{}
		if s.ConfidenceScore <= 0 || s.ConfidenceScore > 1 {
			res.OutOfRange++
		}
	}

	for _, w := range sc.Expected {
		if _, ok := words[strings.ToLower(w)]; !ok {
			res.Missing = append(res.Missing, w)
		}
	}
	for _, w := range sc.Forbidden {
		if _, ok := words[strings.ToLower(w)]; ok {
			res.Leaked = append(res.Leaked, w)
		}
	}

	switch {
	case len(res.Leaked) > 0:
		res.Score = 0
	case len(sc.Expected) == 0:
		res.Score = 1
	default:
		res.Score = float64(len(sc.Expected)-len(res.Missing)) / float64(len(sc.Expected))
	}
	return res
}
