// Regional projects: large shared infrastructure funded by pooled city
// contributions, granting region-wide bonuses on completion.
package region

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ProjectType names an entry in the static project catalog.
type ProjectType string

const (
	ProjectAirport        ProjectType = "regional_airport"
	ProjectSolarFarm      ProjectType = "solar_farm"
	ProjectWaterRecycling ProjectType = "water_recycling_plant"
	ProjectUniversity     ProjectType = "regional_university"
	ProjectFreightHub     ProjectType = "freight_hub"
)

// ProjectDef is a static catalog entry for a project type.
type ProjectDef struct {
	Name     string
	Tier     int
	Cost     int64
	Benefits map[string]float64 // Named percentage bonuses applied on completion
}

// projectCatalog holds every proposable project type.
var projectCatalog = map[ProjectType]ProjectDef{
	ProjectAirport: {
		Name: "Regional Airport", Tier: 3, Cost: 250000,
		Benefits: map[string]float64{"commercial_output": 0.15, "tourism": 0.10},
	},
	ProjectSolarFarm: {
		Name: "Regional Solar Farm", Tier: 2, Cost: 120000,
		Benefits: map[string]float64{"power_production": 0.20},
	},
	ProjectWaterRecycling: {
		Name: "Water Recycling Plant", Tier: 2, Cost: 90000,
		Benefits: map[string]float64{"water_production": 0.15},
	},
	ProjectUniversity: {
		Name: "Regional University", Tier: 3, Cost: 180000,
		Benefits: map[string]float64{"industrial_output": 0.10, "residential_output": 0.05},
	},
	ProjectFreightHub: {
		Name: "Freight Hub", Tier: 1, Cost: 60000,
		Benefits: map[string]float64{"trade_capacity": 0.25},
	},
}

// ProjectTypes lists the proposable types in stable order.
func ProjectTypes() []ProjectType {
	out := make([]ProjectType, 0, len(projectCatalog))
	for t := range projectCatalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ProjectStatus is one-directional: Available → Active → Completed.
type ProjectStatus uint8

const (
	StatusAvailable ProjectStatus = iota
	StatusActive
	StatusCompleted
)

func (s ProjectStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusActive:
		return "active"
	}
	return "completed"
}

// Contribution is one city's cumulative payment toward a project.
type Contribution struct {
	CityID string `json:"city_id"`
	Amount int64  `json:"amount"`
}

// Project is a live instance of a project type. Contributed never exceeds
// TotalCost, and the Completed transition fires exactly once.
type Project struct {
	ID            string             `json:"id"`
	Type          ProjectType        `json:"type"`
	Name          string             `json:"name"`
	Tier          int                `json:"tier"`
	TotalCost     int64              `json:"total_cost"`
	Contributed   int64              `json:"contributed"`
	Status        ProjectStatus      `json:"status"`
	Benefits      map[string]float64 `json:"benefits"`
	Contributions []Contribution     `json:"contributions"`
}

// ProposeRegionalProject instantiates a project from the static catalog.
// A type may only have one live (non-completed) instance at a time.
func (r *Region) ProposeRegionalProject(t ProjectType) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := projectCatalog[t]
	if !ok {
		return nil, ErrUnknownProjectType
	}
	for _, p := range r.projects {
		if p.Type == t && p.Status != StatusCompleted {
			return nil, ErrAlreadyProposed
		}
	}

	benefits := make(map[string]float64, len(def.Benefits))
	for k, v := range def.Benefits {
		benefits[k] = v
	}
	project := &Project{
		ID:        uuid.NewString(),
		Type:      t,
		Name:      def.Name,
		Tier:      def.Tier,
		TotalCost: def.Cost,
		Status:    StatusActive,
		Benefits:  benefits,
	}
	r.projects = append(r.projects, project)
	r.projectIndex[project.ID] = project
	r.emit("project", fmt.Sprintf("%s proposed (cost %d)", def.Name, def.Cost))
	return project, nil
}

// ContributeToProject credits a city's contribution, clamped so the total
// never exceeds the project cost even transiently. The city's ledger pays
// the clamped amount. Reaching the cost completes the project and applies
// its benefits region-wide, exactly once.
func (r *Region) ContributeToProject(projectID, cityID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, ok := r.projectIndex[projectID]
	if !ok {
		return ErrNotFound
	}
	slot, ok := r.cityIndex[cityID]
	if !ok {
		return ErrNotFound
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if project.Status == StatusCompleted {
		return ErrNotFound
	}

	if shortfall := project.TotalCost - project.Contributed; amount > shortfall {
		amount = shortfall
	}
	if amount <= 0 {
		return nil
	}

	slot.Ledger.Charge(amount)
	project.Contributed += amount
	r.creditContribution(project, cityID, amount)
	r.refreshSummary(slot)
	r.emit("project", fmt.Sprintf("%s contributed %d to %s", slot.Name, amount, project.Name))

	if project.Contributed >= project.TotalCost {
		project.Status = StatusCompleted
		for name, bonus := range project.Benefits {
			r.benefits[name] += bonus
		}
		r.emit("project", fmt.Sprintf("%s completed — benefits now apply region-wide", project.Name))
	}
	return nil
}

// creditContribution accumulates onto the city's existing record rather
// than appending duplicates.
func (r *Region) creditContribution(p *Project, cityID string, amount int64) {
	for i := range p.Contributions {
		if p.Contributions[i].CityID == cityID {
			p.Contributions[i].Amount += amount
			return
		}
	}
	p.Contributions = append(p.Contributions, Contribution{CityID: cityID, Amount: amount})
}

// Projects returns the live and completed projects in proposal order.
func (r *Region) Projects() []Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Project, len(r.projects))
	for i, p := range r.projects {
		out[i] = *p
		out[i].Contributions = append([]Contribution(nil), p.Contributions...)
	}
	return out
}
