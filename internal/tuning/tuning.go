// Package tuning centralizes the simulation constants shared across systems.
// Values here are data, not policy — the systems that consume them document
// the behavior they drive.
package tuning

// Supply status classification thresholds (output/demand ratio).
const (
	SurplusRatio  = 1.2
	BalancedRatio = 1.0
	ShortageRatio = 0.7
)

// Trade deal derivation: an accepted offer ships its offered total over
// DefaultDealCycles settlement cycles.
const DefaultDealCycles = 10

// Ticks between settlement cycles at speed 1.0.
const TicksPerCycle = 60

// Starting treasury for a freshly founded city.
const StartingBalance = 10000

// Tax rate every zone opens at.
const DefaultTaxRate = 9

// Happiness proxy: a city with balanced utilities and default taxes
// sits at the base; supply status and tax pressure move it from there.
const BaseHappiness = 70

// Events kept in the in-memory ring before trimming.
const MaxEventBuffer = 1000
