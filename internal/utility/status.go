package utility

import "github.com/mkessler/gridtown/internal/tuning"

// Status classifies citywide supply against demand. Derived on demand by
// consumers, never stored.
type Status uint8

const (
	NoDemand Status = iota
	Surplus
	Balanced
	Shortage
	Critical
)

func (s Status) String() string {
	switch s {
	case NoDemand:
		return "no demand"
	case Surplus:
		return "surplus"
	case Balanced:
		return "balanced"
	case Shortage:
		return "shortage"
	}
	return "critical"
}

// Classify maps an output/demand pair onto a supply status.
func Classify(production, demand int) Status {
	if demand == 0 {
		return NoDemand
	}
	ratio := float64(production) / float64(demand)
	switch {
	case ratio >= tuning.SurplusRatio:
		return Surplus
	case ratio >= tuning.BalancedRatio:
		return Balanced
	case ratio >= tuning.ShortageRatio:
		return Shortage
	}
	return Critical
}
