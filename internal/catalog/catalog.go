// Package catalog provides the read-only building catalog: footprints,
// costs, utility figures, and zone categories. The simulation core treats it
// as a static data source; definitions load from JSON validated against an
// embedded schema before anything decodes them.
package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mkessler/gridtown/internal/grid"
)

//go:embed data/buildings.json
var defaultBuildings []byte

//go:embed data/buildings.schema.json
var buildingsSchema string

// ZoneCategory classifies a building for tax purposes.
type ZoneCategory string

const (
	ZoneNone        ZoneCategory = ""
	ZoneResidential ZoneCategory = "residential"
	ZoneCommercial  ZoneCategory = "commercial"
	ZoneIndustrial  ZoneCategory = "industrial"
)

// Infrastructure roles for utility distribution tiles.
const (
	RoleConductor = "conductor"
	RoleExtender  = "extender"
)

// Infrastructure describes a building's part in a utility distribution
// graph. Range only applies to extenders (poles, towers).
type Infrastructure struct {
	Utility string `json:"utility"` // "power" or "water"
	Role    string `json:"role"`    // RoleConductor or RoleExtender
	Range   int    `json:"range,omitempty"`
}

// BuildingDef is one catalog entry.
type BuildingDef struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Cost   int64        `json:"cost"`
	Zone   ZoneCategory `json:"zone,omitempty"`

	PowerDemand     int `json:"power_demand,omitempty"`
	WaterDemand     int `json:"water_demand,omitempty"`
	PowerProduction int `json:"power_production,omitempty"`
	WaterProduction int `json:"water_production,omitempty"`

	Infrastructure *Infrastructure `json:"infrastructure,omitempty"`

	Population  int   `json:"population,omitempty"`
	Jobs        int   `json:"jobs,omitempty"`
	Output      int64 `json:"output,omitempty"` // Taxable economic output per cycle
	Maintenance int64 `json:"maintenance,omitempty"`
	ServiceCost int64 `json:"service_cost,omitempty"` // Per-cycle services expense
}

// Catalog holds all building definitions keyed by id, plus a digest of the
// loaded document for snapshot compatibility checks.
type Catalog struct {
	Defs   map[string]BuildingDef
	IDs    []string // Sorted, for deterministic iteration
	Digest string
}

// LoadDefault parses the embedded building set.
func LoadDefault() (*Catalog, error) {
	return parse(defaultBuildings)
}

// Load reads a catalog document from disk, falling back over nothing:
// a missing or invalid file is an error, not a silent default.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Catalog, error) {
	schema, err := jsonschema.CompileString("buildings.schema.json", buildingsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	var file struct {
		Buildings []BuildingDef `json:"buildings"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	defs := make(map[string]BuildingDef, len(file.Buildings))
	ids := make([]string, 0, len(file.Buildings))
	for _, def := range file.Buildings {
		if _, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("duplicate building id %q", def.ID)
		}
		defs[def.ID] = def
		ids = append(ids, def.ID)
	}
	sort.Strings(ids)

	sum := sha256.Sum256(raw)
	return &Catalog{
		Defs:   defs,
		IDs:    ids,
		Digest: hex.EncodeToString(sum[:8]),
	}, nil
}

// Lookup returns the definition for a building id.
func (c *Catalog) Lookup(id string) (BuildingDef, bool) {
	def, ok := c.Defs[id]
	return def, ok
}

// Footprint returns the footprint rectangle for a building at the given
// orientation. East/west orientations swap the axes. Implements
// grid.FootprintResolver.
func (c *Catalog) Footprint(buildingID string, o grid.Orientation) (grid.Footprint, bool) {
	def, ok := c.Defs[buildingID]
	if !ok {
		return grid.Footprint{}, false
	}
	w, h := def.Width, def.Height
	if o == grid.East || o == grid.West {
		w, h = h, w
	}
	return grid.Footprint{Width: w, Height: h}, true
}
