package persistence

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mkessler/gridtown/internal/budget"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/region"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState() region.State {
	return region.State{
		Name:  "Testshire",
		Cycle: 42,
		Cities: []region.CityState{
			{
				ID: "c1", Name: "Alba", GridX: 0, GridY: 0, Active: true,
				Width: 24, Height: 24,
				Tiles: []region.TileState{
					{X: 3, Y: 0, Kind: grid.KindBuilding, OriginX: 3, OriginY: 0, BuildingID: "house", Orientation: grid.North, Underlying: grid.KindGrass},
					{X: 5, Y: 5, Kind: grid.KindWater},
				},
				Budget: budget.State{
					Balance: 9500, Debt: 2000, Rates: [3]int{9, 9, 12},
					Income:   budget.Income{Residential: 36},
					Expenses: budget.Expenses{Maintenance: 2},
				},
				Stock: map[region.Resource]int64{region.ResourcePower: 480},
			},
			{
				ID: "c2", Name: "Brennan", GridX: 1, GridY: 0,
				Width: 24, Height: 24,
				Budget: budget.State{Balance: 10000, Rates: [3]int{9, 9, 9}},
				Stock:  map[region.Resource]int64{},
			},
		},
		Offers: []region.TradeOffer{
			{ID: "o1", FromCityID: "c1", Offered: region.ResourcePower, OfferedAmount: 200,
				Requested: region.ResourceFunds, RequestedAmount: 400, CreatedCycle: 40},
		},
		Deals: []region.TradeDeal{
			{ID: "d1", ExporterID: "c1", ImporterID: "c2", Resource: region.ResourcePower,
				AmountPerCycle: 10, TotalAmount: 100, Shipped: 20, DurationCycles: 10, CyclesRemaining: 8},
		},
		Projects: []region.Project{
			{ID: "p1", Type: region.ProjectFreightHub, Name: "Freight Hub", Tier: 1,
				TotalCost: 60000, Contributed: 60000, Status: region.StatusCompleted,
				Benefits:      map[string]float64{"trade_capacity": 0.25},
				Contributions: []region.Contribution{{CityID: "c2", Amount: 60000}}},
		},
		Benefits: map[string]float64{"trade_capacity": 0.25},
	}
}

func TestSaveLoadRegion_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	if db.HasRegion() {
		t.Fatal("fresh database should have no region")
	}

	want := sampleState()
	if err := db.SaveRegion(want); err != nil {
		t.Fatal(err)
	}
	if !db.HasRegion() {
		t.Fatal("HasRegion false after save")
	}

	got, err := db.LoadRegion()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded state differs\n got: %+v\nwant: %+v", got, want)
	}
}

func TestSaveRegion_ReplacesPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)

	first := sampleState()
	if err := db.SaveRegion(first); err != nil {
		t.Fatal(err)
	}

	second := sampleState()
	second.Cycle = 43
	second.Cities = second.Cities[:1]
	second.Offers = nil
	if err := db.SaveRegion(second); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadRegion()
	if err != nil {
		t.Fatal(err)
	}
	if got.Cycle != 43 {
		t.Errorf("cycle = %d, want 43", got.Cycle)
	}
	if len(got.Cities) != 1 {
		t.Errorf("cities = %d, want 1 (stale rows kept)", len(got.Cities))
	}
	if len(got.Offers) != 0 {
		t.Errorf("offers = %d, want 0 (stale rows kept)", len(got.Offers))
	}
}

func TestSaveEvents_RecentEvents(t *testing.T) {
	db := openTestDB(t)

	var events []region.Event
	for i := 1; i <= 5; i++ {
		events = append(events, region.Event{
			Cycle:       uint64(i),
			Description: string(rune('a' + i - 1)),
			Category:    "budget",
		})
	}
	if err := db.SaveEvents(events); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentEvents(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	// Most recent three, oldest first.
	for i, want := range []uint64{3, 4, 5} {
		if got[i].Cycle != want {
			t.Errorf("event[%d].Cycle = %d, want %d", i, got[i].Cycle, want)
		}
	}
}

func TestSaveEvents_EmptyIsNoop(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveEvents(nil); err != nil {
		t.Fatal(err)
	}
	got, err := db.RecentEvents(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("events = %d, want 0", len(got))
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if err := db.SaveMeta("schema_digest", "abc123"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("schema_digest", "def456"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMeta("schema_digest")
	if err != nil {
		t.Fatal(err)
	}
	if got != "def456" {
		t.Errorf("meta = %q, want def456", got)
	}
}
