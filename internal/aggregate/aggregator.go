// Package aggregate computes weekly financial summaries from stored payroll
// events.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/service"
)

// Options selects which events enter a summary and whether cash advances are
// deducted from the grand total.
type Options struct {
	// Statuses filters certifications and fund requests. Empty means all
	// statuses.
	Statuses          []model.EventStatus
	IncludeDeductions bool
}

// Projected is the planning view: every event regardless of approval state,
// no deductions.
func Projected() Options {
	return Options{}
}

// Settlement is the payout view: approved events only, cash advances
// deducted.
func Settlement() Options {
	return Options{
		Statuses:          []model.EventStatus{model.StatusApproved},
		IncludeDeductions: true,
	}
}

// ProjectTotal is the per-project slice of a weekly summary. Events whose
// project never resolved are counted in the week totals but appear in no
// project slice.
type ProjectTotal struct {
	ProjectID      string  `json:"projectId"`
	LaborCost      float64 `json:"laborCost"`
	Certifications float64 `json:"certifications"`
	FundRequests   float64 `json:"fundRequests"`
	Total          float64 `json:"total"`
}

// WeeklySummary is the financial rollup of one payroll week. All monetary
// values are normalized to ARS using the applicable exchange rate.
type WeeklySummary struct {
	WeekID         string         `json:"weekId"`
	StartDate      time.Time      `json:"startDate"`
	EndDate        time.Time      `json:"endDate"`
	ExchangeRate   float64        `json:"exchangeRate"`
	LaborCost      float64        `json:"laborCost"`
	Certifications float64        `json:"certifications"`
	FundRequests   float64        `json:"fundRequests"`
	Deductions     float64        `json:"deductions"`
	GrandTotal     float64        `json:"grandTotal"`
	Projects       []ProjectTotal `json:"projects"`
}

// Aggregator builds weekly summaries from storage.
type Aggregator struct {
	storage service.Storage
}

// NewAggregator creates an aggregator over the given storage.
func NewAggregator(storage service.Storage) *Aggregator {
	return &Aggregator{storage: storage}
}

// Summarize computes the summary of the week starting at weekStart. Labor
// cost is present attendance days times each employee's daily wage.
func (a *Aggregator) Summarize(ctx context.Context, weekStart time.Time, opts Options) (*WeeklySummary, error) {
	week, err := a.storage.GetPayrollWeekByStart(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	attendance, err := a.storage.GetAttendanceByWeek(ctx, week.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	certifications, err := a.storage.GetCertificationsByWeek(ctx, week.ID, opts.Statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load certifications: %w", err)
	}
	fundRequests, err := a.storage.GetFundRequestsByDateRange(ctx, week.StartDate, week.EndDate, opts.Statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund requests: %w", err)
	}
	employees, err := a.storage.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	wages := make(map[string]decimal.Decimal, len(employees))
	for _, e := range employees {
		wages[e.ID] = decimal.NewFromFloat(coerce(e.DailyWage))
	}

	byProject := make(map[string]*projectAccumulator)
	projectOf := func(id string) *projectAccumulator {
		acc, ok := byProject[id]
		if !ok {
			acc = &projectAccumulator{}
			byProject[id] = acc
		}
		return acc
	}

	var labor, certTotal, requestTotal, lateness decimal.Decimal
	hoursPerDay := decimal.NewFromInt(8)

	for _, rec := range attendance {
		if rec.Status != model.AttendancePresent {
			continue
		}
		wage, ok := wages[rec.EmployeeID]
		if !ok {
			continue
		}
		labor = labor.Add(wage)
		if late := coerce(rec.LateHours); late > 0 {
			lateness = lateness.Add(wage.Div(hoursPerDay).Mul(decimal.NewFromFloat(late)))
		}
		if rec.ProjectID != "" && !wage.IsZero() {
			acc := projectOf(rec.ProjectID)
			acc.labor = acc.labor.Add(wage)
		}
	}

	for _, cert := range certifications {
		amount := normalize(cert.Amount, cert.Currency, 0, week.ExchangeRate)
		certTotal = certTotal.Add(amount)
		if cert.ProjectID != "" {
			acc := projectOf(cert.ProjectID)
			acc.certifications = acc.certifications.Add(amount)
		}
	}

	for _, req := range fundRequests {
		amount := normalize(req.Amount, req.Currency, req.ExchangeRate, week.ExchangeRate)
		requestTotal = requestTotal.Add(amount)
		if req.ProjectID != "" {
			acc := projectOf(req.ProjectID)
			acc.fundRequests = acc.fundRequests.Add(amount)
		}
	}

	// Deductions are lateness (valued at the hourly share of the daily wage)
	// plus cash advances.
	var deductions decimal.Decimal
	if opts.IncludeDeductions {
		deductions = lateness
		advances, advErr := a.storage.GetCashAdvancesByWeek(ctx, week.ID)
		if advErr != nil {
			return nil, fmt.Errorf("failed to load cash advances: %w", advErr)
		}
		for _, adv := range advances {
			deductions = deductions.Add(decimal.NewFromFloat(coerce(adv.Amount)))
		}
	}

	grand := labor.Add(certTotal).Add(requestTotal).Sub(deductions)

	summary := &WeeklySummary{
		WeekID:         week.ID,
		StartDate:      week.StartDate,
		EndDate:        week.EndDate,
		ExchangeRate:   week.ExchangeRate,
		LaborCost:      labor.InexactFloat64(),
		Certifications: certTotal.InexactFloat64(),
		FundRequests:   requestTotal.InexactFloat64(),
		Deductions:     deductions.InexactFloat64(),
		GrandTotal:     grand.InexactFloat64(),
		Projects:       make([]ProjectTotal, 0, len(byProject)),
	}

	ids := make([]string, 0, len(byProject))
	for id := range byProject {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		acc := byProject[id]
		total := acc.labor.Add(acc.certifications).Add(acc.fundRequests)
		if total.IsZero() {
			continue
		}
		summary.Projects = append(summary.Projects, ProjectTotal{
			ProjectID:      id,
			LaborCost:      acc.labor.InexactFloat64(),
			Certifications: acc.certifications.InexactFloat64(),
			FundRequests:   acc.fundRequests.InexactFloat64(),
			Total:          total.InexactFloat64(),
		})
	}

	return summary, nil
}

type projectAccumulator struct {
	labor          decimal.Decimal
	certifications decimal.Decimal
	fundRequests   decimal.Decimal
}

// normalize converts an amount to ARS. USD amounts use the event's own
// exchange rate when it carries one, otherwise the week's rate.
func normalize(amount float64, currency model.Currency, eventRate, weekRate float64) decimal.Decimal {
	d := decimal.NewFromFloat(coerce(amount))
	if currency != model.CurrencyUSD {
		return d
	}

	rate := coerce(eventRate)
	if rate <= 0 {
		rate = coerce(weekRate)
	}
	if rate <= 0 {
		return d
	}
	return d.Mul(decimal.NewFromFloat(rate))
}

// coerce maps NaN and infinities to zero so corrupt amounts cannot poison a
// whole summary.
func coerce(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
