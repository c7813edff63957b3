// Per-cycle settlement. Ordering within a cycle follows the data
// dependencies: each city's utility networks are rebuilt before its zone
// output is assessed, output feeds the ledger before it settles, and trade
// deals apply after every city has settled, as one batch in creation order.
package region

import (
	"fmt"

	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/utility"
)

// CityCycleResult reports one city's settlement for observability.
type CityCycleResult struct {
	CityID    string `json:"city_id"`
	Name      string `json:"name"`
	NetIncome int64  `json:"net_income"`
	Balance   int64  `json:"balance"`
}

// CycleReport summarizes one settled cycle.
type CycleReport struct {
	Cycle  uint64            `json:"cycle"`
	Cities []CityCycleResult `json:"cities"`
	Deals  int               `json:"deals"`
}

// RunCycle advances the region by one settlement cycle.
func (r *Region) RunCycle(cycle uint64) CycleReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycle = cycle
	report := CycleReport{Cycle: cycle}

	for _, slot := range r.cities {
		result := r.settleCity(slot)
		report.Cities = append(report.Cities, result)
	}

	report.Deals = len(r.deals)
	r.settleDeals()

	for _, slot := range r.cities {
		r.refreshSummary(slot)
	}
	return report
}

// settleCity runs the single-city portion of a cycle: utility rebuild, zone
// assessment, expense assessment, ledger settlement, and stock accrual.
func (r *Region) settleCity(slot *CitySlot) CityCycleResult {
	slot.Utility.Rebuild(slot.Grid)

	assessment := r.assessCity(slot)
	slot.Ledger.RecordOutput(assessment.residential, assessment.commercial, assessment.industrial)
	slot.Ledger.RecordExpenses(assessment.services, assessment.infrastructure, assessment.maintenance)
	net := slot.Ledger.SettleCycle()

	if net < 0 {
		r.emit("budget", fmt.Sprintf("%s ran a deficit of %d this cycle", slot.Name, -net))
	}

	r.accrueStock(slot, assessment)

	return CityCycleResult{
		CityID:    slot.ID,
		Name:      slot.Name,
		NetIncome: net,
		Balance:   slot.Ledger.Balance(),
	}
}

// cityAssessment is the zone/building system's per-cycle report: taxable
// output per zone category and expense totals per expense category.
type cityAssessment struct {
	residential int64
	commercial  int64
	industrial  int64

	services       int64
	infrastructure int64
	maintenance    int64
}

// assessCity derives the cycle assessment from grid contents. A zoned
// building yields output only while connected to every utility it demands;
// expenses accrue regardless of connectivity.
func (r *Region) assessCity(slot *CitySlot) cityAssessment {
	var a cityAssessment
	g := slot.Grid

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if c.Kind != grid.KindBuilding || c.OriginX != x || c.OriginY != y {
				continue
			}
			def, ok := r.cat.Lookup(c.BuildingID)
			if !ok {
				continue
			}

			if def.Infrastructure != nil {
				a.infrastructure += def.Maintenance
				continue
			}

			a.maintenance += def.Maintenance
			a.services += def.ServiceCost

			if def.Zone == catalog.ZoneNone || !r.supplied(slot, def, utility.Point{X: x, Y: y}) {
				continue
			}
			output := r.boostedOutput(def)
			switch def.Zone {
			case catalog.ZoneResidential:
				a.residential += output
			case catalog.ZoneCommercial:
				a.commercial += output
			case catalog.ZoneIndustrial:
				a.industrial += output
			}
		}
	}
	return a
}

// supplied reports whether a building is connected to every utility kind it
// demands.
func (r *Region) supplied(slot *CitySlot, def catalog.BuildingDef, origin utility.Point) bool {
	if def.PowerDemand > 0 && !slot.Utility.Connected(utility.Power, origin) {
		return false
	}
	if def.WaterDemand > 0 && !slot.Utility.Connected(utility.Water, origin) {
		return false
	}
	return true
}

// boostedOutput applies completed-project bonuses to a building's base
// output.
func (r *Region) boostedOutput(def catalog.BuildingDef) int64 {
	bonus := 0.0
	switch def.Zone {
	case catalog.ZoneResidential:
		bonus = r.benefits["residential_output"]
	case catalog.ZoneCommercial:
		bonus = r.benefits["commercial_output"]
	case catalog.ZoneIndustrial:
		bonus = r.benefits["industrial_output"]
	}
	return def.Output + int64(float64(def.Output)*bonus)
}

// accrueStock converts the cycle's utility surplus and industrial output
// into tradable stock.
func (r *Region) accrueStock(slot *CitySlot, a cityAssessment) {
	power := slot.Utility.Stats(utility.Power)
	water := slot.Utility.Stats(utility.Water)

	powerBonus := 1.0 + r.benefits["power_production"]
	waterBonus := 1.0 + r.benefits["water_production"]

	if surplus := int64(float64(power.Production)*powerBonus) - int64(power.Demand); surplus > 0 {
		slot.Stock[ResourcePower] += surplus
	}
	if surplus := int64(float64(water.Production)*waterBonus) - int64(water.Demand); surplus > 0 {
		slot.Stock[ResourceWater] += surplus
	}
	if a.industrial > 0 {
		slot.Stock[ResourceGoods] += a.industrial / 100
		slot.Stock[ResourceMaterials] += a.industrial / 200
	}
}
