package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mkessler/gridtown/internal/engine"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/region"
	"github.com/mkessler/gridtown/internal/utility"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.Region.Stats()

	status := map[string]any{
		"tick":        s.Eng.Tick(),
		"cycle":       engine.CycleOf(s.Eng.Tick()),
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"cities":      stats.Cities,
		"population":  stats.Population,
		"buildings":   stats.Buildings,
		"active_city": stats.ActiveCityID,
	}
	writeJSON(w, status)
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"stats":    s.Sim.Region.Stats(),
		"benefits": s.Sim.Region.Benefits(),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Region.CityList())
}

// handleCityRoutes dispatches /api/v1/city/:id and /api/v1/city/:id/grid.
// Handlers only ever see locked snapshot copies — never the live slot — so
// encoding cannot race the cycle loop.
func (s *Server) handleCityRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	// /api/v1/city/:id → parts[0]="" [1]="api" [2]="v1" [3]="city" [4]=id
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing city id", http.StatusBadRequest)
		return
	}
	id := parts[4]

	if len(parts) >= 6 && parts[5] == "grid" {
		view, ok := s.Sim.Region.CityGridOf(id)
		if !ok {
			http.Error(w, "city not found", http.StatusNotFound)
			return
		}
		s.handleCityGrid(w, view)
		return
	}

	detail, ok := s.Sim.Region.CityDetailOf(id)
	if !ok {
		http.Error(w, "city not found", http.StatusNotFound)
		return
	}
	s.handleCityDetail(w, detail)
}

func (s *Server) handleCityDetail(w http.ResponseWriter, city region.CityDetail) {
	utilityInfo := func(st utility.KindStats) map[string]any {
		return map[string]any{
			"production":   st.Production,
			"demand":       st.Demand,
			"status":       utility.Classify(st.Production, st.Demand).String(),
			"networks":     st.NetworkCount,
			"connected":    st.Connected,
			"disconnected": st.Disconnected,
		}
	}

	result := map[string]any{
		"id":      city.ID,
		"name":    city.Name,
		"grid_x":  city.GridX,
		"grid_y":  city.GridY,
		"active":  city.Active,
		"summary": city.Summary,
		"budget":  city.Budget,
		"stock":   city.Stock,
		"power":   utilityInfo(city.Power),
		"water":   utilityInfo(city.Water),
	}
	writeJSON(w, result)
}

// handleCityGrid returns the non-grass tiles for the city map renderer.
func (s *Server) handleCityGrid(w http.ResponseWriter, view region.CityGridView) {
	type tileEntry struct {
		X           int    `json:"x"`
		Y           int    `json:"y"`
		Kind        string `json:"kind"`
		BuildingID  string `json:"building_id,omitempty"`
		Orientation int    `json:"orientation,omitempty"`
		OriginX     int    `json:"origin_x,omitempty"`
		OriginY     int    `json:"origin_y,omitempty"`
	}

	tiles := make([]tileEntry, 0, len(view.Tiles))
	for _, t := range view.Tiles {
		entry := tileEntry{X: t.X, Y: t.Y, Kind: grid.KindName(t.Kind)}
		if t.Kind == grid.KindBuilding {
			entry.BuildingID = t.BuildingID
			entry.Orientation = int(t.Orientation)
			entry.OriginX = t.OriginX
			entry.OriginY = t.OriginY
		}
		tiles = append(tiles, entry)
	}

	writeJSON(w, map[string]any{
		"width":  view.Width,
		"height": view.Height,
		"tiles":  tiles,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.Sim.Region.Catalog()

	defs := make([]any, 0, len(cat.IDs))
	for _, id := range cat.IDs {
		defs = append(defs, cat.Defs[id])
	}
	writeJSON(w, map[string]any{
		"digest":    cat.Digest,
		"buildings": defs,
	})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"offers": s.Sim.Region.Offers(),
		"deals":  s.Sim.Region.Deals(),
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	types := region.ProjectTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	writeJSON(w, map[string]any{
		"available_types": names,
		"projects":        s.Sim.Region.Projects(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Region.Events(0)

	// Optional category filter.
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []region.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}

	writeJSON(w, events[start:])
}
