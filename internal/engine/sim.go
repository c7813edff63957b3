// Simulation binds the tick engine to the region and logs cycle reports.
package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/mkessler/gridtown/internal/region"
)

// Simulation runs settlement cycles against one region.
type Simulation struct {
	Region   *region.Region
	LastTick uint64

	// OnCycleDone runs after every settled cycle — used for auto-save.
	OnCycleDone func(cycle uint64)
}

// NewSimulation creates a simulation for a region.
func NewSimulation(r *region.Region) *Simulation {
	return &Simulation{Region: r}
}

// TickStep records tick progress. Per-tick work is intentionally empty:
// grid edits arrive through region calls between ticks, and everything
// cyclic settles in CycleStep.
func (s *Simulation) TickStep(tick uint64) {
	s.LastTick = tick
}

// CycleStep settles one cycle and emits the cycle report.
func (s *Simulation) CycleStep(cycle uint64) {
	report := s.Region.RunCycle(cycle)

	stats := s.Region.Stats()
	slog.Info("cycle report",
		"cycle", cycle,
		"cities", stats.Cities,
		"population", stats.Population,
		"buildings", stats.Buildings,
		"total_balance", humanize.Comma(stats.TotalBalance),
		"total_debt", humanize.Comma(stats.TotalDebt),
		"deals_settled", report.Deals,
	)
	for _, c := range report.Cities {
		if c.NetIncome < 0 {
			slog.Warn("city deficit",
				"city", c.Name,
				"net", humanize.Comma(c.NetIncome),
				"balance", humanize.Comma(c.Balance),
			)
		}
	}

	if s.OnCycleDone != nil {
		s.OnCycleDone(cycle)
	}
}
