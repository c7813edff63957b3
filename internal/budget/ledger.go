// Package budget provides the per-city financial ledger: tax income by zone
// category, expense categories, cyclic settlement, and loan mechanics.
// Settlement is deterministic — the ledger only sums what the zone and
// building systems report into it.
package budget

import (
	"errors"

	"github.com/mkessler/gridtown/internal/tuning"
)

// Ledger operation failures.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidRate   = errors.New("tax rate out of range")
	ErrExceedsDebt   = errors.New("repayment exceeds outstanding debt")
	ErrInsufficient  = errors.New("repayment exceeds available balance")
)

// Tax rate percentage bounds.
const (
	MinTaxRate = 0
	MaxTaxRate = 20
)

// ZoneCategory indexes tax rates and income.
type ZoneCategory uint8

const (
	Residential ZoneCategory = iota
	Commercial
	Industrial
)

func (z ZoneCategory) String() string {
	switch z {
	case Residential:
		return "residential"
	case Commercial:
		return "commercial"
	}
	return "industrial"
}

// Income per zone category for the current cycle.
type Income struct {
	Residential int64 `json:"residential"`
	Commercial  int64 `json:"commercial"`
	Industrial  int64 `json:"industrial"`
}

// Total returns the summed cycle income.
func (i Income) Total() int64 {
	return i.Residential + i.Commercial + i.Industrial
}

// Expenses per category for the current cycle. The totals arrive from the
// zone/building systems; the ledger only applies them.
type Expenses struct {
	Services       int64 `json:"services"`
	Infrastructure int64 `json:"infrastructure"`
	Maintenance    int64 `json:"maintenance"`
}

// Total returns the summed cycle expenses.
func (e Expenses) Total() int64 {
	return e.Services + e.Infrastructure + e.Maintenance
}

// State is the serializable ledger content.
type State struct {
	Balance  int64    `json:"balance"`
	Debt     int64    `json:"debt"`
	Rates    [3]int   `json:"rates"` // Percent per ZoneCategory
	Income   Income   `json:"income"`
	Expenses Expenses `json:"expenses"`
}

// Ledger tracks one city's finances. Balance is signed and stays visibly
// negative after a deficit settlement; debt moves only through TakeLoan and
// RepayLoan, never implicitly.
type Ledger struct {
	state State
}

// New creates a ledger with the given opening balance and the default
// rate for every zone category.
func New(openingBalance int64) *Ledger {
	l := &Ledger{}
	l.state.Balance = openingBalance
	l.state.Rates = [3]int{tuning.DefaultTaxRate, tuning.DefaultTaxRate, tuning.DefaultTaxRate}
	return l
}

// FromState restores a ledger from persisted content.
func FromState(s State) *Ledger {
	return &Ledger{state: s}
}

// State returns a copy of the ledger content.
func (l *Ledger) State() State { return l.state }

// Balance returns the current signed balance.
func (l *Ledger) Balance() int64 { return l.state.Balance }

// Debt returns the outstanding loan principal.
func (l *Ledger) Debt() int64 { return l.state.Debt }

// Rates returns the tax rate per zone category.
func (l *Ledger) Rates() [3]int { return l.state.Rates }

// TaxRate returns the percentage rate for a zone category.
func (l *Ledger) TaxRate(z ZoneCategory) int { return l.state.Rates[z] }

// SetTaxRate updates one category's rate. Rates are caller-facing
// configuration, so the bounds check lives here at the acceptance edge.
func (l *Ledger) SetTaxRate(z ZoneCategory, rate int) error {
	if rate < MinTaxRate || rate > MaxTaxRate {
		return ErrInvalidRate
	}
	l.state.Rates[z] = rate
	return nil
}

// RecordOutput converts per-category zoned building output into cycle
// income at the current rates.
func (l *Ledger) RecordOutput(residential, commercial, industrial int64) {
	l.state.Income = Income{
		Residential: residential * int64(l.state.Rates[Residential]) / 100,
		Commercial:  commercial * int64(l.state.Rates[Commercial]) / 100,
		Industrial:  industrial * int64(l.state.Rates[Industrial]) / 100,
	}
}

// RecordExpenses stores the externally computed cycle expense totals.
func (l *Ledger) RecordExpenses(services, infrastructure, maintenance int64) {
	l.state.Expenses = Expenses{
		Services:       services,
		Infrastructure: infrastructure,
		Maintenance:    maintenance,
	}
}

// Charge applies a one-off expense (construction, contributions) directly
// against the balance.
func (l *Ledger) Charge(amount int64) {
	l.state.Balance -= amount
}

// NetIncome returns cycle income minus cycle expenses. Derived, not stored.
func (l *Ledger) NetIncome() int64 {
	return l.state.Income.Total() - l.state.Expenses.Total()
}

// SettleCycle applies the recorded cycle income and expenses to the balance
// and returns the net change.
func (l *Ledger) SettleCycle() int64 {
	net := l.NetIncome()
	l.state.Balance += net
	return net
}

// TakeLoan increases balance and debt by amount, atomically.
func (l *Ledger) TakeLoan(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.state.Balance += amount
	l.state.Debt += amount
	return nil
}

// RepayLoan decreases balance and debt by amount. Fails without mutating
// when amount is non-positive, exceeds the debt, or exceeds the balance.
func (l *Ledger) RepayLoan(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > l.state.Debt {
		return ErrExceedsDebt
	}
	if amount > l.state.Balance {
		return ErrInsufficient
	}
	l.state.Balance -= amount
	l.state.Debt -= amount
	return nil
}
