package scoring

import (
	"fmt"
	"time"

	"EconSentinel/internal/model"
)

// Normalization ceilings for bank stress. Counts beyond a ceiling clamp
// to it rather than extrapolating, so the score stays within bounds
// even if inputs exceed seen history.
const (
	problemBankCeiling = 200.0 // institutions
	failureCeiling     = 8.0   // failures in 12 months
	problemWeight      = 0.6
	failureWeight      = 0.4
)

// ScoreBankStress composites problem-bank and recent-failure counts.
// The score increases monotonically with both inputs.
func ScoreBankStress(stats *model.BankStats, asOf time.Time) (*model.ScoredSignal, error) {
	if stats == nil {
		return nil, fmt.Errorf("bank stats: %w", ErrInsufficientData)
	}

	problemRatio := clamp01(float64(stats.ProblemInstitutions) / problemBankCeiling)
	failureRatio := clamp01(float64(stats.RecentFailures) / failureCeiling)
	score := clamp01(problemWeight*problemRatio + failureWeight*failureRatio)

	var tags []string
	if score > 0.5 {
		tags = append(tags, model.TagBankStress)
	}

	var summary string
	switch {
	case score < 0.2:
		summary = fmt.Sprintf("Banking system is healthy: %d problem institutions of %d, %d failures in 12 months.",
			stats.ProblemInstitutions, stats.TotalInstitutions, stats.RecentFailures)
	case score < 0.5:
		summary = fmt.Sprintf("Mild banking stress: %d problem institutions, %d failures in 12 months warrant monitoring.",
			stats.ProblemInstitutions, stats.RecentFailures)
	default:
		summary = fmt.Sprintf("Significant banking stress: %d problem institutions and %d failures in 12 months.",
			stats.ProblemInstitutions, stats.RecentFailures)
	}

	return &model.ScoredSignal{
		Name:     model.SignalBankStress,
		Score:    score,
		Summary:  summary,
		Tags:     tags,
		DataAsOf: asOf,
	}, nil
}
