// Package finance implements the money-weighted return math used by the
// valuation engine: net present value of an irregular cash-flow schedule and
// the XIRR discount rate that zeroes it.
package finance

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrNoConvergence is returned when the XIRR root finder fails to converge.
// It fails a single summary request, never a whole refresh.
var ErrNoConvergence = errors.New("xirr solver did not converge")

// ErrNoCashFlows is returned for schedules that cannot define a return rate:
// fewer than two flows, or flows all of the same sign.
var ErrNoCashFlows = errors.New("cash-flow schedule is degenerate")

// CashFlow is one dated flow in an irregular schedule. By convention money
// moving into the investment is negative (the investor pays) and money coming
// back, including the terminal market value, is positive.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

const (
	defaultGuess  = 0.1
	maxIterations = 100
	tolerance     = 1e-6

	// Rate domain searched by the bisection fallback. Below -1 the discount
	// factor is undefined; 10 (1000% a year) is beyond any plausible ledger.
	rateFloor = -0.9999
	rateCeil  = 10.0
)

// XNPV returns the net present value of the schedule at the given annual
// rate, discounting each flow by the actual/365 year fraction from the
// earliest flow in the schedule.
func XNPV(rate float64, flows []CashFlow) float64 {
	if len(flows) == 0 {
		return 0
	}

	t0 := earliest(flows)
	var npv float64
	for _, cf := range flows {
		years := cf.Date.Sub(t0).Hours() / 24 / 365
		npv += cf.Amount / math.Pow(1+rate, years)
	}
	return npv
}

// XIRR solves for the annual rate at which the schedule's net present value
// is zero, i.e. the money-weighted annualized return.
//
// Newton's method is tried first from a 10% starting guess, using an
// analytic derivative. If it diverges or walks out of the valid rate domain,
// a bisection over (rateFloor, rateCeil) is attempted. Schedules whose flows
// are all the same sign have no root and return ErrNoCashFlows.
func XIRR(flows []CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrNoCashFlows
	}

	hasNegative, hasPositive := false, false
	for _, cf := range flows {
		if cf.Amount < 0 {
			hasNegative = true
		}
		if cf.Amount > 0 {
			hasPositive = true
		}
	}
	if !hasNegative || !hasPositive {
		return 0, ErrNoCashFlows
	}

	if rate, ok := newton(flows, defaultGuess); ok {
		return rate, nil
	}
	if rate, ok := bisect(flows); ok {
		return rate, nil
	}
	return 0, ErrNoConvergence
}

// newton runs Newton-Raphson on XNPV. Reports failure when an iterate leaves
// the valid rate domain or the derivative vanishes.
func newton(flows []CashFlow, guess float64) (float64, bool) {
	t0 := earliest(flows)
	rate := guess

	for i := 0; i < maxIterations; i++ {
		var f, df float64
		for _, cf := range flows {
			years := cf.Date.Sub(t0).Hours() / 24 / 365
			f += cf.Amount / math.Pow(1+rate, years)
			df -= years * cf.Amount / math.Pow(1+rate, years+1)
		}

		if math.Abs(f) < tolerance {
			return rate, true
		}
		if df == 0 || math.IsNaN(df) || math.IsInf(df, 0) {
			return 0, false
		}

		next := rate - f/df
		if math.IsNaN(next) || next <= rateFloor || next >= rateCeil {
			return 0, false
		}
		rate = next
	}
	return 0, false
}

// bisect finds a root of XNPV on (rateFloor, rateCeil) when the endpoints
// bracket a sign change.
func bisect(flows []CashFlow) (float64, bool) {
	lo, hi := rateFloor, rateCeil
	fLo, fHi := XNPV(lo, flows), XNPV(hi, flows)
	if fLo*fHi > 0 {
		return 0, false
	}

	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := XNPV(mid, flows)
		if math.Abs(fMid) < tolerance || hi-lo < 1e-10 {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, false
}

// SortFlows orders a schedule chronologically in place. XNPV and XIRR do not
// require sorted input, but summaries log and serialize schedules sorted.
func SortFlows(flows []CashFlow) {
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
}

func earliest(flows []CashFlow) time.Time {
	t0 := flows[0].Date
	for _, cf := range flows[1:] {
		if cf.Date.Before(t0) {
			t0 = cf.Date
		}
	}
	return t0
}
