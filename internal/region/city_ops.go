// City-scoped operations: placement, demolition, tax, and loan intents.
// Each wrapper validates, mutates the owning slot's subsystems in order
// (grid edit, then utility rebuild, then summary refresh), and publishes a
// change event — so any snapshot taken after the call returns already
// reflects the edit.
package region

import (
	"fmt"

	"github.com/mkessler/gridtown/internal/budget"
	"github.com/mkessler/gridtown/internal/grid"
)

// PlaceBuilding validates and places a catalog building in a city, charging
// its construction cost. All-or-nothing: any failure leaves the city
// untouched.
func (r *Region) PlaceBuilding(cityID string, x, y int, buildingID string, o grid.Orientation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return ErrNotFound
	}
	def, ok := r.cat.Lookup(buildingID)
	if !ok {
		return ErrNotFound
	}
	fp, _ := r.cat.Footprint(buildingID, o)
	if err := grid.ValidatePlacement(slot.Grid, x, y, fp); err != nil {
		return err
	}
	if slot.Ledger.Balance() < def.Cost {
		return ErrInsufficientFunds
	}

	grid.Place(slot.Grid, x, y, buildingID, o, fp)
	slot.Ledger.Charge(def.Cost)
	slot.Utility.Rebuild(slot.Grid)
	r.refreshSummary(slot)
	r.emit("grid", fmt.Sprintf("%s built %s at (%d, %d)", slot.Name, def.Name, x, y))
	return nil
}

// RemoveBuilding demolishes the building covering (x, y). Returns false
// when there is nothing to remove; that is a no-op, not an error.
func (r *Region) RemoveBuilding(cityID string, x, y int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return false, ErrNotFound
	}
	if !grid.Remove(slot.Grid, x, y, r.cat) {
		return false, nil
	}
	slot.Utility.Rebuild(slot.Grid)
	r.refreshSummary(slot)
	r.emit("grid", fmt.Sprintf("%s demolished at (%d, %d)", slot.Name, x, y))
	return true, nil
}

// EraseTile clears a single terrain feature to grass.
func (r *Region) EraseTile(cityID string, x, y int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return false, ErrNotFound
	}
	if !grid.EraseTile(slot.Grid, x, y) {
		return false, nil
	}
	r.refreshSummary(slot)
	r.emit("grid", fmt.Sprintf("%s cleared terrain at (%d, %d)", slot.Name, x, y))
	return true, nil
}

// SetTaxRate updates one zone category's rate for a city.
func (r *Region) SetTaxRate(cityID string, z budget.ZoneCategory, rate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return ErrNotFound
	}
	if err := slot.Ledger.SetTaxRate(z, rate); err != nil {
		return err
	}
	r.refreshSummary(slot)
	r.emit("budget", fmt.Sprintf("%s set %s tax to %d%%", slot.Name, z, rate))
	return nil
}

// TakeLoan draws a loan into a city's balance.
func (r *Region) TakeLoan(cityID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return ErrNotFound
	}
	if err := slot.Ledger.TakeLoan(amount); err != nil {
		return err
	}
	r.refreshSummary(slot)
	r.emit("budget", fmt.Sprintf("%s took a loan of %d", slot.Name, amount))
	return nil
}

// RepayLoan pays down a city's debt.
func (r *Region) RepayLoan(cityID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return ErrNotFound
	}
	if err := slot.Ledger.RepayLoan(amount); err != nil {
		return err
	}
	r.refreshSummary(slot)
	r.emit("budget", fmt.Sprintf("%s repaid %d of debt", slot.Name, amount))
	return nil
}
