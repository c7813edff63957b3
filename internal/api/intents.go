// Intent handlers: POST endpoints that mutate the region.
package api

import (
	"log/slog"
	"net/http"

	"github.com/mkessler/gridtown/internal/budget"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/persistence"
	"github.com/mkessler/gridtown/internal/region"
)

func parseZone(name string) (budget.ZoneCategory, bool) {
	switch name {
	case "residential":
		return budget.Residential, true
	case "commercial":
		return budget.Commercial, true
	case "industrial":
		return budget.Industrial, true
	}
	return 0, false
}

func parseOrientation(name string) (grid.Orientation, bool) {
	switch name {
	case "", "north":
		return grid.North, true
	case "east":
		return grid.East, true
	case "south":
		return grid.South, true
	case "west":
		return grid.West, true
	}
	return 0, false
}

func parseResource(name string) (region.Resource, bool) {
	switch res := region.Resource(name); res {
	case region.ResourcePower, region.ResourceWater, region.ResourceGoods,
		region.ResourceMaterials, region.ResourceFunds:
		return res, true
	}
	return "", false
}

func (s *Server) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		GridX int    `json:"grid_x"`
		GridY int    `json:"grid_y"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	city, err := s.Sim.Region.CreateCity(req.Name, req.GridX, req.GridY)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("city founded", "id", city.ID, "name", city.Name)

	detail, _ := s.Sim.Region.CityDetailOf(city.ID)
	writeJSON(w, map[string]any{"id": detail.ID, "name": detail.Name, "active": detail.Active})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.Sim.Region.SwitchCity(req.CityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"active_city": req.CityID})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID      string `json:"city_id"`
		X           int    `json:"x"`
		Y           int    `json:"y"`
		BuildingID  string `json:"building_id"`
		Orientation string `json:"orientation,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	o, ok := parseOrientation(req.Orientation)
	if !ok {
		http.Error(w, "orientation must be north, east, south, or west", http.StatusBadRequest)
		return
	}

	if err := s.Sim.Region.PlaceBuilding(req.CityID, req.X, req.Y, req.BuildingID, o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
		X      int    `json:"x"`
		Y      int    `json:"y"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	removed, err := s.Sim.Region.RemoveBuilding(req.CityID, req.X, req.Y)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"removed": removed})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
		X      int    `json:"x"`
		Y      int    `json:"y"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	erased, err := s.Sim.Region.EraseTile(req.CityID, req.X, req.Y)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"erased": erased})
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
		Zone   string `json:"zone"`
		Rate   int    `json:"rate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	zone, ok := parseZone(req.Zone)
	if !ok {
		http.Error(w, "zone must be residential, commercial, or industrial", http.StatusBadRequest)
		return
	}

	if err := s.Sim.Region.SetTaxRate(req.CityID, zone, req.Rate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"zone": req.Zone, "rate": req.Rate})
}

func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
		Action string `json:"action"` // "take" or "repay"
		Amount int64  `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "take":
		err = s.Sim.Region.TakeLoan(req.CityID, req.Amount)
	case "repay":
		err = s.Sim.Region.RepayLoan(req.CityID, req.Amount)
	default:
		http.Error(w, "action must be take or repay", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	detail, ok := s.Sim.Region.CityDetailOf(req.CityID)
	if !ok {
		writeError(w, region.ErrNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"balance": detail.Budget.Balance,
		"debt":    detail.Budget.Debt,
	})
}

func (s *Server) handleTradeOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID          string `json:"city_id"`
		Offered         string `json:"offered"`
		OfferedAmount   int64  `json:"offered_amount"`
		Requested       string `json:"requested"`
		RequestedAmount int64  `json:"requested_amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	offered, ok1 := parseResource(req.Offered)
	requested, ok2 := parseResource(req.Requested)
	if !ok1 || !ok2 {
		http.Error(w, "resources must be power, water, goods, materials, or funds", http.StatusBadRequest)
		return
	}

	offer, err := s.Sim.Region.CreateTradeOffer(req.CityID, offered, req.OfferedAmount, requested, req.RequestedAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, offer)
}

func (s *Server) handleTradeAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID string `json:"offer_id"`
		CityID  string `json:"city_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	deal, err := s.Sim.Region.AcceptTradeOffer(req.OfferID, req.CityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, deal)
}

func (s *Server) handleTradeWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID string `json:"offer_id"`
		CityID  string `json:"city_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.Sim.Region.WithdrawTradeOffer(req.OfferID, req.CityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"withdrawn": true})
}

func (s *Server) handleTradeCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealID string `json:"deal_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.Sim.Region.CancelTradeDeal(req.DealID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"cancelled": true})
}

func (s *Server) handleProjectPropose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := s.Sim.Region.ProposeRegionalProject(region.ProjectType(req.Type))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, project)
}

func (s *Server) handleProjectContribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		CityID    string `json:"city_id"`
		Amount    int64  `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.Sim.Region.ContributeToProject(req.ProjectID, req.CityID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveRegionState(s.Sim.Region); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"cycle":   s.Sim.Region.Cycle(),
		"message": "snapshot saved",
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.ArchiveDir == "" {
		http.Error(w, "archiving not configured", http.StatusServiceUnavailable)
		return
	}

	st := s.Sim.Region.ExportState()
	path, err := persistence.WriteArchive(s.ArchiveDir, st)
	if err != nil {
		slog.Error("archive export failed", "error", err)
		http.Error(w, "archive failed", http.StatusInternalServerError)
		return
	}

	slog.Info("archive written", "path", path, "cycle", st.Cycle)
	writeJSON(w, map[string]any{"path": path, "cycle": st.Cycle})
}
