package grid

import (
	"errors"
	"testing"
)

// fakeResolver maps building ids to fixed footprints, swapping axes for
// east/west like the real catalog does.
type fakeResolver map[string]Footprint

func (f fakeResolver) Footprint(id string, o Orientation) (Footprint, bool) {
	fp, ok := f[id]
	if !ok {
		return Footprint{}, false
	}
	if o == East || o == West {
		fp.Width, fp.Height = fp.Height, fp.Width
	}
	return fp, true
}

func TestValidatePlacement_OutOfBounds(t *testing.T) {
	g := New(8, 8)
	fp := Footprint{Width: 3, Height: 2}

	cases := []struct{ x, y int }{
		{-1, 0},
		{0, -1},
		{6, 0}, // 6+3 > 8
		{0, 7}, // 7+2 > 8
	}
	for _, c := range cases {
		if err := ValidatePlacement(g, c.x, c.y, fp); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("ValidatePlacement(%d,%d) = %v, want ErrOutOfBounds", c.x, c.y, err)
		}
	}
}

func TestValidatePlacement_UnbuildableTile(t *testing.T) {
	g := New(8, 8)
	g.At(2, 1).Kind = KindWater

	err := ValidatePlacement(g, 1, 0, Footprint{Width: 2, Height: 2})
	if !errors.Is(err, ErrUnbuildableTile) {
		t.Fatalf("ValidatePlacement over water = %v, want ErrUnbuildableTile", err)
	}

	// Adjacent placement that misses the water cell is fine.
	if err := ValidatePlacement(g, 3, 0, Footprint{Width: 2, Height: 2}); err != nil {
		t.Fatalf("ValidatePlacement beside water = %v, want nil", err)
	}
}

func TestValidatePlacement_BoundsCheckedBeforeTiles(t *testing.T) {
	g := New(4, 4)
	g.At(3, 3).Kind = KindWater

	// Footprint both exits the grid and covers water; bounds wins.
	err := ValidatePlacement(g, 3, 3, Footprint{Width: 2, Height: 2})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestPlaceAndRemove_RestoresUnderlyingTiles(t *testing.T) {
	g := New(8, 8)
	g.At(2, 2).Kind = KindSnow
	g.At(3, 3).Kind = KindWasteland

	fp := Footprint{Width: 2, Height: 2}
	Place(g, 2, 2, "workshop", North, fp)

	if got := g.BuildingCount(); got != 1 {
		t.Fatalf("BuildingCount = %d, want 1", got)
	}
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			c := g.At(2+dx, 2+dy)
			if c.Kind != KindBuilding {
				t.Fatalf("cell (%d,%d) kind = %v, want building", 2+dx, 2+dy, c.Kind)
			}
			if c.OriginX != 2 || c.OriginY != 2 {
				t.Fatalf("cell (%d,%d) origin = (%d,%d), want (2,2)", 2+dx, 2+dy, c.OriginX, c.OriginY)
			}
		}
	}

	// Remove via a non-origin footprint cell.
	if !Remove(g, 3, 3, fakeResolver{"workshop": fp}) {
		t.Fatal("Remove returned false for a placed building")
	}

	if got := g.At(2, 2).Kind; got != KindSnow {
		t.Errorf("restored (2,2) kind = %v, want snow", got)
	}
	if got := g.At(3, 3).Kind; got != KindWasteland {
		t.Errorf("restored (3,3) kind = %v, want wasteland", got)
	}
	if got := g.At(2, 3).Kind; got != KindGrass {
		t.Errorf("restored (2,3) kind = %v, want grass", got)
	}
	if got := g.BuildingCount(); got != 0 {
		t.Errorf("BuildingCount after remove = %d, want 0", got)
	}
}

func TestRemove_NonBuildingCell(t *testing.T) {
	g := New(4, 4)
	if Remove(g, 1, 1, fakeResolver{}) {
		t.Fatal("Remove on empty grass returned true")
	}
	if Remove(g, -1, 0, fakeResolver{}) {
		t.Fatal("Remove out of bounds returned true")
	}
}

func TestRemove_UnknownBuildingID(t *testing.T) {
	g := New(4, 4)
	Place(g, 0, 0, "ghost", North, Footprint{Width: 1, Height: 1})

	if Remove(g, 0, 0, fakeResolver{}) {
		t.Fatal("Remove with unresolvable id returned true")
	}
	if g.At(0, 0).Kind != KindBuilding {
		t.Fatal("failed Remove mutated the grid")
	}
}

func TestPlace_OrientedFootprint(t *testing.T) {
	g := New(8, 8)
	res := fakeResolver{"mall": {Width: 3, Height: 2}}

	fp, _ := res.Footprint("mall", East)
	if fp.Width != 2 || fp.Height != 3 {
		t.Fatalf("east footprint = %dx%d, want 2x3", fp.Width, fp.Height)
	}

	Place(g, 0, 0, "mall", East, fp)
	if g.At(1, 2).Kind != KindBuilding {
		t.Error("rotated footprint did not cover (1,2)")
	}
	if g.At(2, 0).Kind == KindBuilding {
		t.Error("rotated footprint covered (2,0)")
	}

	if !Remove(g, 1, 2, res) {
		t.Fatal("Remove failed for rotated building")
	}
	if got := g.BuildingCount(); got != 0 {
		t.Fatalf("BuildingCount = %d, want 0", got)
	}
}

func TestEraseTile(t *testing.T) {
	g := New(4, 4)
	g.At(1, 1).Kind = KindWater

	if !EraseTile(g, 1, 1) {
		t.Fatal("EraseTile on water returned false")
	}
	if g.At(1, 1).Kind != KindGrass {
		t.Fatalf("erased kind = %v, want grass", g.At(1, 1).Kind)
	}

	// Already grass: no-op.
	if EraseTile(g, 1, 1) {
		t.Fatal("EraseTile on grass returned true")
	}
	if EraseTile(g, 9, 9) {
		t.Fatal("EraseTile out of bounds returned true")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(32, 32, 7)
	b := Generate(32, 32, 7)
	for i := range a.Cells {
		if a.Cells[i].Kind != b.Cells[i].Kind {
			t.Fatalf("cell %d differs between same-seed generations", i)
		}
	}

	c := Generate(32, 32, 8)
	same := true
	for i := range a.Cells {
		if a.Cells[i].Kind != c.Cells[i].Kind {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical terrain")
	}
}
