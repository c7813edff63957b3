package utility

import (
	"testing"

	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/grid"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadDefault()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

// place looks up the building's north footprint and writes it to the grid.
func place(t *testing.T, cat *catalog.Catalog, g *grid.Grid, id string, x, y int) {
	t.Helper()
	fp, ok := cat.Footprint(id, grid.North)
	if !ok {
		t.Fatalf("unknown building %q", id)
	}
	if err := grid.ValidatePlacement(g, x, y, fp); err != nil {
		t.Fatalf("place %s at (%d,%d): %v", id, x, y, err)
	}
	grid.Place(g, x, y, id, grid.North, fp)
}

func TestRebuild_EmptyGrid(t *testing.T) {
	cat := testCatalog(t)
	e := NewEngine(cat)
	e.Rebuild(grid.New(16, 16))

	for _, kind := range []Kind{Power, Water} {
		st := e.Stats(kind)
		if st.NetworkCount != 0 || st.Production != 0 || st.Demand != 0 {
			t.Errorf("%s stats on empty grid = %+v, want zeros", kind, st)
		}
	}
}

func TestRebuild_ConductorChainConnectsBuilding(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	// Plant at (0,0) 2x2, a line of conductors east from (2,0), house at the end.
	place(t, cat, g, "power_plant", 0, 0)
	for x := 2; x <= 5; x++ {
		place(t, cat, g, "power_line", x, 0)
	}
	place(t, cat, g, "house", 6, 0)

	e := NewEngine(cat)
	e.Rebuild(g)

	st := e.Stats(Power)
	if st.NetworkCount != 1 {
		t.Fatalf("power networks = %d, want 1", st.NetworkCount)
	}
	if st.Production != 500 || st.Demand != 2 {
		t.Fatalf("citywide power = %d/%d, want 500/2", st.Production, st.Demand)
	}
	if st.Connected != 2 {
		t.Fatalf("connected buildings = %d, want 2 (plant and house)", st.Connected)
	}
	if !e.Connected(Power, Point{6, 0}) {
		t.Error("house at line end reported disconnected")
	}

	nw := st.Networks[0]
	if nw.Production != 500 || nw.Demand != 2 {
		t.Errorf("network power = %d/%d, want 500/2", nw.Production, nw.Demand)
	}
}

func TestRebuild_GapSplitsNetworks(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	place(t, cat, g, "power_line", 0, 0)
	place(t, cat, g, "power_line", 1, 0)
	// Gap at x=2.
	place(t, cat, g, "power_line", 3, 0)

	e := NewEngine(cat)
	e.Rebuild(g)

	if got := e.Stats(Power).NetworkCount; got != 2 {
		t.Fatalf("networks across gap = %d, want 2", got)
	}
}

func TestRebuild_ExtenderBridgesGap(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	// Pole range is 2: a pole at (0,0) reaches a line at (2,0) across the gap.
	place(t, cat, g, "power_pole", 0, 0)
	place(t, cat, g, "power_line", 2, 0)

	e := NewEngine(cat)
	e.Rebuild(g)
	if got := e.Stats(Power).NetworkCount; got != 1 {
		t.Fatalf("networks with bridging pole = %d, want 1", got)
	}

	// Range 2 also covers diagonals (Chebyshev distance).
	g2 := grid.New(16, 16)
	place(t, cat, g2, "power_pole", 0, 0)
	place(t, cat, g2, "power_line", 2, 2)
	e.Rebuild(g2)
	if got := e.Stats(Power).NetworkCount; got != 1 {
		t.Fatalf("diagonal reach networks = %d, want 1", got)
	}

	// One past the range does not connect.
	g3 := grid.New(16, 16)
	place(t, cat, g3, "power_pole", 0, 0)
	place(t, cat, g3, "power_line", 3, 0)
	e.Rebuild(g3)
	if got := e.Stats(Power).NetworkCount; got != 2 {
		t.Fatalf("out-of-range networks = %d, want 2", got)
	}
}

func TestRebuild_DisconnectedDemandStillCounted(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	// House with no infrastructure anywhere near it.
	place(t, cat, g, "house", 8, 8)

	e := NewEngine(cat)
	e.Rebuild(g)

	st := e.Stats(Power)
	if st.Demand != 2 {
		t.Errorf("citywide demand = %d, want 2 despite disconnection", st.Demand)
	}
	if st.Disconnected != 1 || st.Connected != 0 {
		t.Errorf("connected/disconnected = %d/%d, want 0/1", st.Connected, st.Disconnected)
	}
	if e.Connected(Power, Point{8, 8}) {
		t.Error("isolated house reported connected")
	}
}

func TestRebuild_KindsAreIndependent(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	// Water infrastructure next to a house: the house gets water, not power.
	place(t, cat, g, "water_pump", 0, 0) // 1x2
	place(t, cat, g, "water_pipe", 1, 0)
	place(t, cat, g, "house", 2, 0)

	e := NewEngine(cat)
	e.Rebuild(g)

	if !e.Connected(Water, Point{2, 0}) {
		t.Error("house beside water pipe not water-connected")
	}
	if e.Connected(Power, Point{2, 0}) {
		t.Error("house is power-connected with no power infrastructure")
	}
	if got := e.Stats(Power).NetworkCount; got != 0 {
		t.Errorf("power networks = %d, want 0", got)
	}
	if got := e.Stats(Water).Production; got != 300 {
		t.Errorf("water production = %d, want 300", got)
	}
}

func TestRebuild_BuildingTouchingTwoNetworksJoinsFirst(t *testing.T) {
	cat := testCatalog(t)
	g := grid.New(16, 16)

	// Two separate conductors flanking one house: the house is adjacent to
	// both and must join the first network in scan order.
	place(t, cat, g, "power_line", 0, 0)
	place(t, cat, g, "power_line", 2, 0)
	place(t, cat, g, "house", 1, 0)

	e := NewEngine(cat)
	e.Rebuild(g)

	st := e.Stats(Power)
	if st.NetworkCount != 2 {
		t.Fatalf("networks = %d, want 2", st.NetworkCount)
	}
	if len(st.Networks[0].Buildings) != 1 || st.Networks[0].Buildings[0].BuildingID != "house" {
		t.Errorf("network 0 buildings = %+v, want the house", st.Networks[0].Buildings)
	}
	if len(st.Networks[1].Buildings) != 0 {
		t.Errorf("network 1 buildings = %+v, want none", st.Networks[1].Buildings)
	}
	if st.Connected != 1 {
		t.Errorf("connected = %d, want 1 (house counted once)", st.Connected)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		production, demand int
		want               Status
	}{
		{0, 0, NoDemand},
		{500, 0, NoDemand},
		{120, 100, Surplus},  // ratio 1.2
		{100, 100, Balanced}, // ratio 1.0
		{119, 100, Balanced},
		{70, 100, Shortage}, // ratio 0.7
		{99, 100, Shortage},
		{69, 100, Critical},
		{0, 100, Critical},
	}
	for _, c := range cases {
		if got := Classify(c.production, c.demand); got != c.want {
			t.Errorf("Classify(%d, %d) = %v, want %v", c.production, c.demand, got, c.want)
		}
	}
}
