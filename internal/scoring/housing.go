package scoring

import (
	"fmt"
	"math"
	"time"

	"EconSentinel/internal/model"
)

// Affordability constants: a 30-year fixed loan on 80% of the median
// price, income proxied as hourly earnings over 173 monthly work hours.
// A payment burden of 15% of income scores 0; 60% saturates at 1.
const (
	loanFraction     = 0.80
	loanMonths       = 360
	monthlyWorkHours = 173.0
	burdenFloor      = 0.15
	burdenSpan       = 0.45
)

// ScoreHousingAffordability composites home prices, mortgage rates, and
// an income proxy. The score increases as affordability worsens.
func ScoreHousingAffordability(homePrice, mortgageRate, hourlyEarnings *model.EconomicSeries, asOf time.Time) (*model.ScoredSignal, error) {
	price, err := latestValue(homePrice, "home price")
	if err != nil {
		return nil, err
	}
	rate, err := latestValue(mortgageRate, "mortgage rate")
	if err != nil {
		return nil, err
	}
	earnings, err := latestValue(hourlyEarnings, "hourly earnings")
	if err != nil {
		return nil, err
	}
	if price <= 0 || rate < 0 || earnings <= 0 {
		return nil, fmt.Errorf("non-positive housing inputs: %w", ErrInsufficientData)
	}

	payment := monthlyPayment(price*loanFraction, rate)
	income := earnings * monthlyWorkHours
	burden := payment / income
	score := clamp01((burden - burdenFloor) / burdenSpan)

	var tags []string
	if score >= 0.6 {
		tags = append(tags, model.TagStrained)
	}

	summary := fmt.Sprintf(
		"Estimated payment on the median home is $%.0f/mo at %.2f%%, %.0f%% of the proxied median income.",
		payment, rate, burden*100)

	return &model.ScoredSignal{
		Name:     model.SignalHousing,
		Score:    score,
		Summary:  summary,
		Tags:     tags,
		DataAsOf: asOf,
	}, nil
}

// monthlyPayment amortizes a loan at an annual percentage rate over
// loanMonths. A zero rate degenerates to straight-line repayment.
func monthlyPayment(loan, annualRatePct float64) float64 {
	if annualRatePct == 0 {
		return loan / loanMonths
	}
	r := annualRatePct / 100 / 12
	f := math.Pow(1+r, loanMonths)
	return loan * r * f / (f - 1)
}
