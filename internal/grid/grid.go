// Package grid provides the authoritative tile matrix and building
// footprint bookkeeping for one city.
package grid

import "fmt"

// TileKind enumerates what occupies a cell.
type TileKind uint8

const (
	KindGrass     TileKind = iota // Default buildable ground
	KindSnow                      // Buildable cold terrain
	KindWasteland                 // Buildable degraded terrain
	KindRubble                    // Buildable demolition residue
	KindWater                     // Unbuildable
	KindBuilding                  // Occupied by a building footprint
)

// KindName returns a display name for a tile kind.
func KindName(k TileKind) string {
	switch k {
	case KindGrass:
		return "Grass"
	case KindSnow:
		return "Snow"
	case KindWasteland:
		return "Wasteland"
	case KindRubble:
		return "Rubble"
	case KindWater:
		return "Water"
	case KindBuilding:
		return "Building"
	}
	return "Unknown"
}

// Buildable reports whether a building footprint may cover this kind.
func (k TileKind) Buildable() bool {
	switch k {
	case KindGrass, KindSnow, KindWasteland, KindRubble:
		return true
	}
	return false
}

// Orientation of a placed building. East/West swap the footprint axes.
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

// Cell is one tile of the city grid. When Kind is KindBuilding the origin
// fields identify the footprint anchor and Underlying records the kind the
// cell had before placement, so removal can restore it. Underlying is never
// KindBuilding.
type Cell struct {
	Kind TileKind `json:"kind"`

	OriginX     int         `json:"origin_x,omitempty"`
	OriginY     int         `json:"origin_y,omitempty"`
	BuildingID  string      `json:"building_id,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
	Underlying  TileKind    `json:"underlying,omitempty"`
}

// Grid holds the tile matrix for one city. Cells are stored row-major.
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []Cell `json:"cells"`
}

// New creates a grid filled with grass.
func New(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the cell at (x, y). Callers must bounds-check first.
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[y*g.Width+x]
}

// BuildingCount returns the number of distinct buildings (origin cells).
func (g *Grid) BuildingCount() int {
	n := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			if c.Kind == KindBuilding && c.OriginX == x && c.OriginY == y {
				n++
			}
		}
	}
	return n
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, buildings=%d)", g.Width, g.Height, g.BuildingCount())
}
