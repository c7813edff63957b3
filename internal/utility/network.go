// Package utility derives power and water distribution networks from the
// city grid and aggregates supply against demand. The engine never patches
// components incrementally: every grid edit triggers a full rebuild, trading
// recomputation cost for correctness.
package utility

import (
	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/grid"
)

// Kind selects which utility a network distributes.
type Kind uint8

const (
	Power Kind = iota
	Water
)

func (k Kind) String() string {
	if k == Power {
		return "power"
	}
	return "water"
}

func (k Kind) catalogName() string { return k.String() }

// Point identifies a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BuildingRef identifies a placed building by its footprint origin.
type BuildingRef struct {
	Origin     Point  `json:"origin"`
	BuildingID string `json:"building_id"`
}

// Network is one maximal connected set of infrastructure elements and the
// buildings they reach, for one utility kind.
type Network struct {
	ID         int           `json:"id"`
	Kind       Kind          `json:"kind"`
	Production int           `json:"production"`
	Demand     int           `json:"demand"`
	Buildings  []BuildingRef `json:"buildings"`
}

// KindStats aggregates one utility kind citywide. Production and Demand sum
// over every placed building regardless of connectivity; per-network figures
// cover only attached buildings.
type KindStats struct {
	Production   int       `json:"production"`
	Demand       int       `json:"demand"`
	NetworkCount int       `json:"network_count"`
	Connected    int       `json:"connected_buildings"`
	Disconnected int       `json:"disconnected_buildings"`
	Conductors   int       `json:"conductors"`
	Extenders    int       `json:"extenders"`
	Networks     []Network `json:"networks"`
}

// Engine rebuilds networks from grid state. A zero demand/production
// building with no reachable infrastructure is simply reported as
// disconnected — never an error.
type Engine struct {
	catalog *catalog.Catalog

	Power KindStats
	Water KindStats

	powerConnected map[Point]bool
	waterConnected map[Point]bool
}

// NewEngine creates an engine bound to a building catalog.
func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Connected reports whether the building anchored at origin is attached to
// any network of the given kind. Valid until the next Rebuild.
func (e *Engine) Connected(kind Kind, origin Point) bool {
	if kind == Power {
		return e.powerConnected[origin]
	}
	return e.waterConnected[origin]
}

// Stats returns the citywide aggregate for a kind.
func (e *Engine) Stats(kind Kind) KindStats {
	if kind == Power {
		return e.Power
	}
	return e.Water
}

// Rebuild recomputes both utility kinds from scratch.
func (e *Engine) Rebuild(g *grid.Grid) {
	e.Power, e.powerConnected = e.rebuildKind(g, Power)
	e.Water, e.waterConnected = e.rebuildKind(g, Water)
}

// node is one infrastructure cell in the connectivity graph.
type node struct {
	at       Point
	extRange int // 0 for conductors
}

func (e *Engine) rebuildKind(g *grid.Grid, kind Kind) (KindStats, map[Point]bool) {
	stats := KindStats{}
	connected := make(map[Point]bool)

	// Scan the grid once: infrastructure nodes and building origins, in
	// row-major order so network and membership assignment is deterministic.
	var nodes []node
	nodeIndex := make(map[Point]int)
	type placed struct {
		origin Point
		def    catalog.BuildingDef
		fp     grid.Footprint
	}
	var buildings []placed

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if c.Kind != grid.KindBuilding || c.OriginX != x || c.OriginY != y {
				continue
			}
			def, ok := e.catalog.Lookup(c.BuildingID)
			if !ok {
				continue
			}
			if infra := def.Infrastructure; infra != nil && infra.Utility == kind.catalogName() {
				n := node{at: Point{x, y}}
				if infra.Role == catalog.RoleExtender {
					n.extRange = infra.Range
					stats.Extenders++
				} else {
					stats.Conductors++
				}
				nodeIndex[n.at] = len(nodes)
				nodes = append(nodes, n)
				continue
			}
			fp, _ := e.catalog.Footprint(c.BuildingID, c.Orientation)
			buildings = append(buildings, placed{origin: Point{x, y}, def: def, fp: fp})
		}
	}

	// Citywide totals come from grid truth, connected or not.
	for _, b := range buildings {
		stats.Production += production(b.def, kind)
		stats.Demand += demand(b.def, kind)
	}

	// Partition nodes into components: edges between 4-adjacent nodes and
	// between any pair within an extender's Chebyshev range.
	membership := make([]int, len(nodes))
	for i := range membership {
		membership[i] = -1
	}
	componentID := 0
	for start := range nodes {
		if membership[start] != -1 {
			continue
		}
		queue := []int{start}
		membership[start] = componentID
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for next := range nodes {
				if membership[next] != -1 {
					continue
				}
				if nodesLinked(nodes[cur], nodes[next]) {
					membership[next] = componentID
					queue = append(queue, next)
				}
			}
		}
		componentID++
	}

	networks := make([]Network, componentID)
	for i := range networks {
		networks[i] = Network{ID: i, Kind: kind}
	}

	// Attach buildings: any footprint cell 4-adjacent to a member node, or
	// within an extender's range. A building touching several networks joins
	// the first in scan order.
	for _, b := range buildings {
		netID := attachedNetwork(b.origin, b.fp, nodes, membership)
		if netID < 0 {
			stats.Disconnected++
			continue
		}
		stats.Connected++
		connected[b.origin] = true
		nw := &networks[netID]
		nw.Buildings = append(nw.Buildings, BuildingRef{Origin: b.origin, BuildingID: b.def.ID})
		nw.Production += production(b.def, kind)
		nw.Demand += demand(b.def, kind)
	}

	stats.Networks = networks
	stats.NetworkCount = componentID
	return stats, connected
}

// nodesLinked reports whether two infrastructure nodes connect directly:
// grid adjacency, or either node's extender range covering the other.
func nodesLinked(a, b node) bool {
	dx := abs(a.at.X - b.at.X)
	dy := abs(a.at.Y - b.at.Y)
	if dx+dy == 1 {
		return true
	}
	cheb := dx
	if dy > cheb {
		cheb = dy
	}
	return (a.extRange > 0 && cheb <= a.extRange) || (b.extRange > 0 && cheb <= b.extRange)
}

// attachedNetwork finds the component a building footprint reaches, or -1.
func attachedNetwork(origin Point, fp grid.Footprint, nodes []node, membership []int) int {
	best := -1
	for i, n := range nodes {
		for dy := 0; dy < fp.Height; dy++ {
			for dx := 0; dx < fp.Width; dx++ {
				cx, cy := origin.X+dx, origin.Y+dy
				ddx := abs(n.at.X - cx)
				ddy := abs(n.at.Y - cy)
				reach := ddx+ddy == 1
				if !reach && n.extRange > 0 {
					cheb := ddx
					if ddy > cheb {
						cheb = ddy
					}
					reach = cheb <= n.extRange
				}
				if reach {
					if best == -1 || membership[i] < best {
						best = membership[i]
					}
				}
			}
		}
	}
	return best
}

func production(def catalog.BuildingDef, kind Kind) int {
	if kind == Power {
		return def.PowerProduction
	}
	return def.WaterProduction
}

func demand(def catalog.BuildingDef, kind Kind) int {
	if kind == Power {
		return def.PowerDemand
	}
	return def.WaterDemand
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
