// Package region manages the multi-city region: city slots with their owned
// grid, utility, and budget subsystems, inter-city trade, and shared
// regional projects. The Region is the sole mutator of everything it owns;
// every public call serializes behind one mutex so the HTTP surface and the
// tick loop never interleave mid-operation.
package region

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkessler/gridtown/internal/budget"
	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/tuning"
	"github.com/mkessler/gridtown/internal/utility"
)

// Region operation failures. All recoverable, all returned before any
// mutation takes effect.
var (
	ErrSlotOccupied       = errors.New("region slot already holds a city")
	ErrRegionFull         = errors.New("region has reached its city limit")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrUnknownProjectType = errors.New("unknown project type")
	ErrAlreadyProposed    = errors.New("project type already has a live instance")
	ErrSameCity           = errors.New("offer cannot be accepted by its creator")
	ErrInsufficientFunds  = errors.New("city cannot afford this")
)

// Resource kinds moved by trade deals and stocked per city. Funds is
// special-cased: it moves ledger balance instead of stock.
type Resource string

const (
	ResourcePower     Resource = "power"
	ResourceWater     Resource = "water"
	ResourceGoods     Resource = "goods"
	ResourceMaterials Resource = "materials"
	ResourceFunds     Resource = "funds"
)

// CitySummary is the cached per-city snapshot refreshed after every
// mutation and settlement cycle.
type CitySummary struct {
	Population      int   `json:"population"`
	Buildings       int   `json:"buildings"`
	Jobs            int   `json:"jobs"`
	Balance         int64 `json:"balance"`
	Debt            int64 `json:"debt"`
	PowerProduction int   `json:"power_production"`
	PowerDemand     int   `json:"power_demand"`
	WaterProduction int   `json:"water_production"`
	WaterDemand     int   `json:"water_demand"`
	Happiness       int   `json:"happiness"`
}

// CitySlot is one city within the region. The slot exclusively owns its
// grid, utility engine, and ledger; nothing outside the region package
// mutates them directly.
type CitySlot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	GridX  int    `json:"grid_x"`
	GridY  int    `json:"grid_y"`
	Active bool   `json:"active"`

	Grid    *grid.Grid
	Utility *utility.Engine
	Ledger  *budget.Ledger
	Stock   map[Resource]int64

	Summary CitySummary `json:"summary"`
}

// Config sizes a region and its cities.
type Config struct {
	Name       string
	GridWidth  int // Region slot grid
	GridHeight int
	MaxCities  int
	CityWidth  int // Per-city tile grid
	CityHeight int
	Seed       int64
}

// Region owns all city slots, trade offers and deals, and regional
// projects. Cross-city references are by id only.
type Region struct {
	mu  sync.Mutex
	cfg Config
	cat *catalog.Catalog

	cities    []*CitySlot // creation order
	cityIndex map[string]*CitySlot
	byPos     map[[2]int]*CitySlot
	activeID  string

	offers       []*TradeOffer
	offerIndex   map[string]*TradeOffer
	deals        []*TradeDeal // creation order; settlement applies in this order
	dealIndex    map[string]*TradeDeal
	projects     []*Project
	projectIndex map[string]*Project
	benefits     map[string]float64

	bus    *Bus
	events []Event
	cycle  uint64 // Last settled cycle
}

// New creates an empty region.
func New(cfg Config, cat *catalog.Catalog) *Region {
	return &Region{
		cfg:          cfg,
		cat:          cat,
		cityIndex:    make(map[string]*CitySlot),
		byPos:        make(map[[2]int]*CitySlot),
		offerIndex:   make(map[string]*TradeOffer),
		dealIndex:    make(map[string]*TradeDeal),
		projectIndex: make(map[string]*Project),
		benefits:     make(map[string]float64),
		bus:          NewBus(),
	}
}

// Bus returns the change notification bus.
func (r *Region) Bus() *Bus { return r.bus }

// Catalog returns the building catalog the region was built against.
func (r *Region) Catalog() *catalog.Catalog { return r.cat }

// Cycle returns the last settled cycle number.
func (r *Region) Cycle() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycle
}

// CreateCity founds a city at the given region slot. Fails with
// ErrSlotOccupied when the position already holds a city and ErrRegionFull
// at the city limit; never relocates or overwrites. The first city founded
// becomes active.
func (r *Region) CreateCity(name string, gridX, gridY int) (*CitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byPos[[2]int{gridX, gridY}]; taken {
		return nil, ErrSlotOccupied
	}
	if len(r.cities) >= r.cfg.MaxCities {
		return nil, ErrRegionFull
	}

	// Per-city terrain seed derives from the region seed and slot position
	// so a region regenerates identically.
	seed := r.cfg.Seed + int64(gridY)*int64(r.cfg.GridWidth) + int64(gridX)

	slot := &CitySlot{
		ID:      uuid.NewString(),
		Name:    name,
		GridX:   gridX,
		GridY:   gridY,
		Grid:    grid.Generate(r.cfg.CityWidth, r.cfg.CityHeight, seed),
		Utility: utility.NewEngine(r.cat),
		Ledger:  budget.New(tuning.StartingBalance),
		Stock:   make(map[Resource]int64),
	}
	slot.Utility.Rebuild(slot.Grid)
	r.refreshSummary(slot)

	r.cities = append(r.cities, slot)
	r.cityIndex[slot.ID] = slot
	r.byPos[[2]int{gridX, gridY}] = slot

	if r.activeID == "" {
		slot.Active = true
		r.activeID = slot.ID
	}

	r.emit("city", fmt.Sprintf("%s founded at (%d, %d)", name, gridX, gridY))
	return slot, nil
}

// SwitchCity deactivates the current active city and activates the target.
// Exactly one city is active after success.
func (r *Region) SwitchCity(cityID string) (*CitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.cityIndex[cityID]
	if !ok {
		return nil, ErrNotFound
	}
	if current, ok := r.cityIndex[r.activeID]; ok {
		current.Active = false
	}
	target.Active = true
	r.activeID = cityID
	r.emit("city", fmt.Sprintf("switched to %s", target.Name))
	return target, nil
}

// City returns the slot for an id.
func (r *Region) City(cityID string) (*CitySlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.cityIndex[cityID]
	return slot, ok
}

// ActiveCity returns the currently active slot, or nil before any city
// exists.
func (r *Region) ActiveCity() *CitySlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cityIndex[r.activeID]
}

// Cities returns the slots in creation order.
func (r *Region) Cities() []*CitySlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*CitySlot, len(r.cities))
	copy(out, r.cities)
	return out
}

// Events returns the most recent events, newest last.
func (r *Region) Events(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if limit > 0 && len(r.events) > limit {
		start = len(r.events) - limit
	}
	out := make([]Event, len(r.events)-start)
	copy(out, r.events[start:])
	return out
}

// Benefits returns the accumulated region-wide project bonuses.
func (r *Region) Benefits() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.benefits))
	for k, v := range r.benefits {
		out[k] = v
	}
	return out
}

// Stats aggregates current per-city snapshots. Recomputed on demand, never
// incrementally maintained — always correct at cost proportional to the
// city count.
type Stats struct {
	Cities          int     `json:"cities"`
	Population      int     `json:"population"`
	Buildings       int     `json:"buildings"`
	TotalBalance    int64   `json:"total_balance"`
	TotalDebt       int64   `json:"total_debt"`
	PowerProduction int     `json:"power_production"`
	WaterProduction int     `json:"water_production"`
	AvgNetIncome    float64 `json:"avg_net_income"`
	AvgHappiness    float64 `json:"avg_happiness"`
	ActiveCityID    string  `json:"active_city_id"`
	OpenOffers      int     `json:"open_offers"`
	ActiveDeals     int     `json:"active_deals"`
	Projects        int     `json:"projects"`
}

// Stats recomputes the regional aggregate from city summaries.
func (r *Region) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		Cities:       len(r.cities),
		ActiveCityID: r.activeID,
		OpenOffers:   len(r.offers),
		ActiveDeals:  len(r.deals),
		Projects:     len(r.projects),
	}
	var netSum, happySum float64
	for _, c := range r.cities {
		st.Population += c.Summary.Population
		st.Buildings += c.Summary.Buildings
		st.TotalBalance += c.Summary.Balance
		st.TotalDebt += c.Summary.Debt
		st.PowerProduction += c.Summary.PowerProduction
		st.WaterProduction += c.Summary.WaterProduction
		netSum += float64(c.Ledger.NetIncome())
		happySum += float64(c.Summary.Happiness)
	}
	if len(r.cities) > 0 {
		st.AvgNetIncome = netSum / float64(len(r.cities))
		st.AvgHappiness = happySum / float64(len(r.cities))
	}
	return st
}

// refreshSummary recomputes a slot's cached snapshot from its grid, utility
// engine, and ledger. Callers hold the region lock.
func (r *Region) refreshSummary(slot *CitySlot) {
	sum := CitySummary{
		Balance: slot.Ledger.Balance(),
		Debt:    slot.Ledger.Debt(),
	}
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
			sum.Buildings++
			sum.Population += def.Population
			sum.Jobs += def.Jobs
		}
	}
	power := slot.Utility.Stats(utility.Power)
	water := slot.Utility.Stats(utility.Water)
	sum.PowerProduction = power.Production
	sum.PowerDemand = power.Demand
	sum.WaterProduction = water.Production
	sum.WaterDemand = water.Demand
	sum.Happiness = happiness(power, water, slot.Ledger.Rates())
	slot.Summary = sum
}

// happiness scores a city 0..100: utility supply moves it off the base,
// taxing above the default drags it down.
func happiness(power, water utility.KindStats, rates [3]int) int {
	h := tuning.BaseHappiness
	for _, st := range []utility.Status{
		utility.Classify(power.Production, power.Demand),
		utility.Classify(water.Production, water.Demand),
	} {
		switch st {
		case utility.Surplus:
			h += 10
		case utility.Balanced:
			h += 5
		case utility.Shortage:
			h -= 10
		case utility.Critical:
			h -= 25
		}
	}
	avgRate := (rates[0] + rates[1] + rates[2]) / 3
	if avgRate > tuning.DefaultTaxRate {
		h -= 2 * (avgRate - tuning.DefaultTaxRate)
	}
	if h < 0 {
		h = 0
	}
	if h > 100 {
		h = 100
	}
	return h
}
