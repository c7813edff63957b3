// Placement validation and reversible building placement.
// These are pure grid transforms: the catalog and orientation arrive as
// explicit inputs, so a sequence of calls replays deterministically.
package grid

import "errors"

// Placement failures, reported before any mutation.
var (
	ErrOutOfBounds     = errors.New("footprint extends past grid bounds")
	ErrUnbuildableTile = errors.New("footprint covers an unbuildable tile")
)

// Footprint is the rectangle of cells a building covers at a given
// orientation, anchored at its origin cell.
type Footprint struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FootprintResolver supplies the current footprint for a building id and
// orientation. Satisfied by the building catalog.
type FootprintResolver interface {
	Footprint(buildingID string, o Orientation) (Footprint, bool)
}

// ValidatePlacement checks that every cell of the footprint anchored at
// (x, y) is in bounds and buildable. No side effects. Bounds violations are
// reported before tile violations.
func ValidatePlacement(g *Grid, x, y int, fp Footprint) error {
	if x < 0 || y < 0 || x+fp.Width > g.Width || y+fp.Height > g.Height {
		return ErrOutOfBounds
	}
	for dy := 0; dy < fp.Height; dy++ {
		for dx := 0; dx < fp.Width; dx++ {
			if !g.At(x+dx, y+dy).Kind.Buildable() {
				return ErrUnbuildableTile
			}
		}
	}
	return nil
}

// Place writes the building footprint anchored at (x, y), recording per cell
// the origin coordinates and the kind being covered. Validation is the
// caller's responsibility; Place overwrites unconditionally.
func Place(g *Grid, x, y int, buildingID string, o Orientation, fp Footprint) {
	for dy := 0; dy < fp.Height; dy++ {
		for dx := 0; dx < fp.Width; dx++ {
			c := g.At(x+dx, y+dy)
			c.Underlying = c.Kind
			c.Kind = KindBuilding
			c.OriginX = x
			c.OriginY = y
			c.BuildingID = buildingID
			c.Orientation = o
		}
	}
}

// Remove demolishes the building covering (x, y), restoring every footprint
// cell to its recorded underlying kind. Any cell of a multi-cell building
// may be targeted; the cell's own origin pointer resolves the anchor.
// Returns false without mutating when the cell is not a building cell or the
// building id is unknown to the resolver.
func Remove(g *Grid, x, y int, catalog FootprintResolver) bool {
	if !g.InBounds(x, y) {
		return false
	}
	c := g.At(x, y)
	if c.Kind != KindBuilding {
		return false
	}
	fp, ok := catalog.Footprint(c.BuildingID, c.Orientation)
	if !ok {
		return false
	}

	ox, oy := c.OriginX, c.OriginY
	for dy := 0; dy < fp.Height; dy++ {
		for dx := 0; dx < fp.Width; dx++ {
			cell := g.At(ox+dx, oy+dy)
			*cell = Cell{Kind: cell.Underlying}
		}
	}
	return true
}

// EraseTile converts a single non-grass cell directly to grass, bypassing
// footprint bookkeeping. Used for clearing terrain features; building cells
// must go through Remove first. Returns false when already grass or out of
// bounds.
func EraseTile(g *Grid, x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	c := g.At(x, y)
	if c.Kind == KindGrass {
		return false
	}
	*c = Cell{Kind: KindGrass}
	return true
}
