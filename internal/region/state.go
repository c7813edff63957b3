// Plain serializable snapshots of the full region, used by persistence and
// the archive exporter. Default-grass tiles are elided to keep saves small.
package region

import (
	"github.com/mkessler/gridtown/internal/budget"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/utility"
)

// TileState is one non-default grid cell.
type TileState struct {
	X           int              `json:"x"`
	Y           int              `json:"y"`
	Kind        grid.TileKind    `json:"kind"`
	OriginX     int              `json:"origin_x,omitempty"`
	OriginY     int              `json:"origin_y,omitempty"`
	BuildingID  string           `json:"building_id,omitempty"`
	Orientation grid.Orientation `json:"orientation,omitempty"`
	Underlying  grid.TileKind    `json:"underlying,omitempty"`
}

// CityState is one city slot in serializable form.
type CityState struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	GridX  int                `json:"grid_x"`
	GridY  int                `json:"grid_y"`
	Active bool               `json:"active"`
	Width  int                `json:"width"`
	Height int                `json:"height"`
	Tiles  []TileState        `json:"tiles"`
	Budget budget.State       `json:"budget"`
	Stock  map[Resource]int64 `json:"stock"`
}

// CityOverview is the listing row for one city.
type CityOverview struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	GridX   int         `json:"grid_x"`
	GridY   int         `json:"grid_y"`
	Active  bool        `json:"active"`
	Summary CitySummary `json:"summary"`
}

// CityDetail is a point-in-time copy of one city's observable state, taken
// under the region lock so callers can hold and encode it while the cycle
// loop keeps mutating the live slot.
type CityDetail struct {
	CityOverview
	Budget budget.State       `json:"budget"`
	Stock  map[Resource]int64 `json:"stock"`
	Power  utility.KindStats  `json:"power"`
	Water  utility.KindStats  `json:"water"`
}

// CityGridView lists a city's non-default tiles for map rendering.
type CityGridView struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Tiles  []TileState `json:"tiles"`
}

// CityList returns overview copies of every city in creation order.
func (r *Region) CityList() []CityOverview {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CityOverview, 0, len(r.cities))
	for _, slot := range r.cities {
		out = append(out, overviewOf(slot))
	}
	return out
}

// CityDetailOf snapshots one city. The KindStats copies share their network
// slices with the utility engine's last rebuild; a rebuild replaces those
// slices wholesale rather than mutating them in place, so the copies stay
// consistent after the lock drops.
func (r *Region) CityDetailOf(cityID string) (CityDetail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return CityDetail{}, false
	}
	d := CityDetail{
		CityOverview: overviewOf(slot),
		Budget:       slot.Ledger.State(),
		Stock:        make(map[Resource]int64, len(slot.Stock)),
		Power:        slot.Utility.Stats(utility.Power),
		Water:        slot.Utility.Stats(utility.Water),
	}
	for res, qty := range slot.Stock {
		d.Stock[res] = qty
	}
	return d, true
}

// CityGridOf snapshots a city's tile listing.
func (r *Region) CityGridOf(cityID string) (CityGridView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[cityID]
	if !ok {
		return CityGridView{}, false
	}
	return CityGridView{
		Width:  slot.Grid.Width,
		Height: slot.Grid.Height,
		Tiles:  tilesOf(slot.Grid),
	}, true
}

func overviewOf(slot *CitySlot) CityOverview {
	return CityOverview{
		ID:      slot.ID,
		Name:    slot.Name,
		GridX:   slot.GridX,
		GridY:   slot.GridY,
		Active:  slot.Active,
		Summary: slot.Summary,
	}
}

// tilesOf collects the non-grass cells in row-major order.
func tilesOf(g *grid.Grid) []TileState {
	var tiles []TileState
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if c.Kind == grid.KindGrass {
				continue
			}
			tiles = append(tiles, TileState{
				X: x, Y: y, Kind: c.Kind,
				OriginX: c.OriginX, OriginY: c.OriginY,
				BuildingID: c.BuildingID, Orientation: c.Orientation,
				Underlying: c.Underlying,
			})
		}
	}
	return tiles
}

// State is the full region snapshot.
type State struct {
	Name     string             `json:"name"`
	Cycle    uint64             `json:"cycle"`
	Cities   []CityState        `json:"cities"`
	Offers   []TradeOffer       `json:"offers"`
	Deals    []TradeDeal        `json:"deals"`
	Projects []Project          `json:"projects"`
	Benefits map[string]float64 `json:"benefits"`
}

// ExportState captures the region for persistence.
func (r *Region) ExportState() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := State{
		Name:     r.cfg.Name,
		Cycle:    r.cycle,
		Benefits: make(map[string]float64, len(r.benefits)),
	}
	for k, v := range r.benefits {
		st.Benefits[k] = v
	}

	for _, slot := range r.cities {
		cs := CityState{
			ID:     slot.ID,
			Name:   slot.Name,
			GridX:  slot.GridX,
			GridY:  slot.GridY,
			Active: slot.Active,
			Width:  slot.Grid.Width,
			Height: slot.Grid.Height,
			Budget: slot.Ledger.State(),
			Stock:  make(map[Resource]int64, len(slot.Stock)),
		}
		for res, qty := range slot.Stock {
			cs.Stock[res] = qty
		}
		cs.Tiles = tilesOf(slot.Grid)
		st.Cities = append(st.Cities, cs)
	}

	for _, o := range r.offers {
		st.Offers = append(st.Offers, *o)
	}
	for _, d := range r.deals {
		st.Deals = append(st.Deals, *d)
	}
	for _, p := range r.projects {
		proj := *p
		proj.Contributions = append([]Contribution(nil), p.Contributions...)
		st.Projects = append(st.Projects, proj)
	}
	return st
}

// RestoreState rebuilds the region from a snapshot, replacing all current
// content. Utility networks and summaries are recomputed rather than
// restored — they derive from the grid.
func (r *Region) RestoreState(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycle = st.Cycle
	r.cities = nil
	r.cityIndex = make(map[string]*CitySlot)
	r.byPos = make(map[[2]int]*CitySlot)
	r.activeID = ""

	for _, cs := range st.Cities {
		g := grid.New(cs.Width, cs.Height)
		for _, t := range cs.Tiles {
			*g.At(t.X, t.Y) = grid.Cell{
				Kind:        t.Kind,
				OriginX:     t.OriginX,
				OriginY:     t.OriginY,
				BuildingID:  t.BuildingID,
				Orientation: t.Orientation,
				Underlying:  t.Underlying,
			}
		}
		slot := &CitySlot{
			ID:      cs.ID,
			Name:    cs.Name,
			GridX:   cs.GridX,
			GridY:   cs.GridY,
			Active:  cs.Active,
			Grid:    g,
			Utility: utility.NewEngine(r.cat),
			Ledger:  budget.FromState(cs.Budget),
			Stock:   make(map[Resource]int64, len(cs.Stock)),
		}
		for res, qty := range cs.Stock {
			slot.Stock[res] = qty
		}
		slot.Utility.Rebuild(g)
		r.refreshSummary(slot)

		r.cities = append(r.cities, slot)
		r.cityIndex[slot.ID] = slot
		r.byPos[[2]int{slot.GridX, slot.GridY}] = slot
		if slot.Active {
			r.activeID = slot.ID
		}
	}

	r.offers = nil
	r.offerIndex = make(map[string]*TradeOffer)
	for i := range st.Offers {
		o := st.Offers[i]
		r.offers = append(r.offers, &o)
		r.offerIndex[o.ID] = &o
	}

	r.deals = nil
	r.dealIndex = make(map[string]*TradeDeal)
	for i := range st.Deals {
		d := st.Deals[i]
		r.deals = append(r.deals, &d)
		r.dealIndex[d.ID] = &d
	}

	r.projects = nil
	r.projectIndex = make(map[string]*Project)
	for i := range st.Projects {
		p := st.Projects[i]
		p.Contributions = append([]Contribution(nil), st.Projects[i].Contributions...)
		r.projects = append(r.projects, &p)
		r.projectIndex[p.ID] = &p
	}

	r.benefits = make(map[string]float64, len(st.Benefits))
	for k, v := range st.Benefits {
		r.benefits[k] = v
	}
}
