package budget

import (
	"errors"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	l := New(10000)
	if l.Balance() != 10000 {
		t.Fatalf("balance = %d, want 10000", l.Balance())
	}
	if l.Debt() != 0 {
		t.Fatalf("debt = %d, want 0", l.Debt())
	}
	for _, z := range []ZoneCategory{Residential, Commercial, Industrial} {
		if got := l.TaxRate(z); got != 9 {
			t.Errorf("default %s rate = %d, want 9", z, got)
		}
	}
}

func TestSetTaxRate_Bounds(t *testing.T) {
	l := New(0)

	for _, rate := range []int{0, 20} {
		if err := l.SetTaxRate(Commercial, rate); err != nil {
			t.Errorf("SetTaxRate(%d) = %v, want nil", rate, err)
		}
	}
	for _, rate := range []int{-1, 21, 100} {
		if err := l.SetTaxRate(Commercial, rate); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("SetTaxRate(%d) = %v, want ErrInvalidRate", rate, err)
		}
	}
	if got := l.TaxRate(Commercial); got != 20 {
		t.Fatalf("rate after rejected updates = %d, want 20", got)
	}
}

func TestSettleCycle_AppliesNet(t *testing.T) {
	l := New(1000)
	if err := l.SetTaxRate(Residential, 10); err != nil {
		t.Fatal(err)
	}
	if err := l.SetTaxRate(Commercial, 10); err != nil {
		t.Fatal(err)
	}
	if err := l.SetTaxRate(Industrial, 10); err != nil {
		t.Fatal(err)
	}

	// Output 4000+3000+1000 at 10% = 800 income; 500 expenses; net +300.
	l.RecordOutput(4000, 3000, 1000)
	l.RecordExpenses(200, 100, 200)

	if got := l.NetIncome(); got != 300 {
		t.Fatalf("NetIncome = %d, want 300", got)
	}
	if net := l.SettleCycle(); net != 300 {
		t.Fatalf("SettleCycle = %d, want 300", net)
	}
	if got := l.Balance(); got != 1300 {
		t.Fatalf("balance after settle = %d, want 1300", got)
	}
}

func TestSettleCycle_DeficitGoesNegative(t *testing.T) {
	l := New(100)
	l.RecordOutput(0, 0, 0)
	l.RecordExpenses(300, 0, 0)

	l.SettleCycle()
	if got := l.Balance(); got != -200 {
		t.Fatalf("balance = %d, want -200 (deficit stays visible)", got)
	}
	if got := l.Debt(); got != 0 {
		t.Fatalf("debt = %d, want 0 (deficit never converts to debt)", got)
	}
}

func TestZeroRate_ZeroIncome(t *testing.T) {
	l := New(0)
	for _, z := range []ZoneCategory{Residential, Commercial, Industrial} {
		if err := l.SetTaxRate(z, 0); err != nil {
			t.Fatal(err)
		}
	}
	l.RecordOutput(9999, 9999, 9999)
	if got := l.State().Income.Total(); got != 0 {
		t.Fatalf("income at 0%% = %d, want 0", got)
	}
}

func TestTakeLoan(t *testing.T) {
	l := New(500)
	if err := l.TakeLoan(2000); err != nil {
		t.Fatalf("TakeLoan = %v", err)
	}
	if l.Balance() != 2500 || l.Debt() != 2000 {
		t.Fatalf("after loan balance/debt = %d/%d, want 2500/2000", l.Balance(), l.Debt())
	}

	if err := l.TakeLoan(0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("TakeLoan(0) = %v, want ErrInvalidAmount", err)
	}
	if err := l.TakeLoan(-5); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("TakeLoan(-5) = %v, want ErrInvalidAmount", err)
	}
	if l.Balance() != 2500 || l.Debt() != 2000 {
		t.Fatal("rejected loan mutated the ledger")
	}
}

func TestRepayLoan(t *testing.T) {
	l := New(500)
	if err := l.TakeLoan(1000); err != nil {
		t.Fatal(err)
	}

	if err := l.RepayLoan(1500); !errors.Is(err, ErrExceedsDebt) {
		t.Errorf("overpay = %v, want ErrExceedsDebt", err)
	}

	l.Charge(1400) // balance 1500 → 100
	if err := l.RepayLoan(500); !errors.Is(err, ErrInsufficient) {
		t.Errorf("repay beyond balance = %v, want ErrInsufficient", err)
	}
	if l.Balance() != 100 || l.Debt() != 1000 {
		t.Fatal("failed repayment mutated the ledger")
	}

	if err := l.RepayLoan(100); err != nil {
		t.Fatalf("RepayLoan = %v", err)
	}
	if l.Balance() != 0 || l.Debt() != 900 {
		t.Fatalf("after repay balance/debt = %d/%d, want 0/900", l.Balance(), l.Debt())
	}
}

func TestFromState_RoundTrip(t *testing.T) {
	l := New(750)
	l.SetTaxRate(Industrial, 15)
	l.TakeLoan(300)
	l.RecordOutput(1000, 0, 2000)
	l.RecordExpenses(10, 20, 30)

	restored := FromState(l.State())
	if restored.State() != l.State() {
		t.Fatalf("restored state = %+v, want %+v", restored.State(), l.State())
	}
}
