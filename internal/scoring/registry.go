package scoring

import (
	"time"

	"EconSentinel/internal/model"
)

// Scorer couples a signal name to its scoring function. Registering a
// scorer here is all it takes for the signal to flow through ingestion,
// history, changes, and alerts.
type Scorer struct {
	Name  string
	Score func(in *Inputs, asOf time.Time) (*model.ScoredSignal, error)
}

// Registry lists every individual scorer in evaluation order. The
// composite recession probability is computed separately from these
// scorers' outputs.
var Registry = []Scorer{
	{
		Name: model.SignalYieldCurve,
		Score: func(in *Inputs, asOf time.Time) (*model.ScoredSignal, error) {
			return ScoreYieldCurve(in.Spread, asOf)
		},
	},
	{
		Name: model.SignalJobsInflation,
		Score: func(in *Inputs, asOf time.Time) (*model.ScoredSignal, error) {
			return ScoreJobsInflation(in.Unemployment, in.CoreCPI, asOf)
		},
	},
	{
		Name: model.SignalHousing,
		Score: func(in *Inputs, asOf time.Time) (*model.ScoredSignal, error) {
			return ScoreHousingAffordability(in.HomePrice, in.MortgageRate, in.HourlyEarnings, asOf)
		},
	},
	{
		Name: model.SignalBankStress,
		Score: func(in *Inputs, asOf time.Time) (*model.ScoredSignal, error) {
			return ScoreBankStress(in.Bank, asOf)
		},
	},
}

// SignalNames returns the registered signal names in evaluation order.
func SignalNames() []string {
	names := make([]string, len(Registry))
	for i, s := range Registry {
		names[i] = s.Name
	}
	return names
}
