package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteSchema is the top-level YAML structure for seeding a site.
type SiteSchema struct {
	ConstructionTypes []ConstructionTypeImport `yaml:"construction_types"`
	Homebuilders      []HomebuilderImport      `yaml:"homebuilders,omitempty"`
	UnitTypes         []UnitTypeImport         `yaml:"unit_types,omitempty"`
	Maps              []MapImport              `yaml:"maps"`
}

type ConstructionTypeImport struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Stages      []StageImport `yaml:"stages"`
}

// StageImport defines one stage. SortOrder defaults to the 1-based position
// in the list when omitted.
type StageImport struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	SortOrder   *int   `yaml:"sort_order,omitempty"`
	Color       string `yaml:"color,omitempty"`
}

type HomebuilderImport struct {
	Name         string `yaml:"name"`
	ContactEmail string `yaml:"contact_email,omitempty"`
	ContactPhone string `yaml:"contact_phone,omitempty"`
	Address      string `yaml:"address,omitempty"`
	Website      string `yaml:"website,omitempty"`
}

type UnitTypeImport struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type MapImport struct {
	Name      string       `yaml:"name"`
	Slug      string       `yaml:"slug"`
	ImagePath string       `yaml:"image_path,omitempty"`
	Width     int          `yaml:"width,omitempty"`
	Height    int          `yaml:"height,omitempty"`
	Plots     []PlotImport `yaml:"plots"`
}

// PlotImport references construction types, homebuilders and unit types by name.
type PlotImport struct {
	Name             string           `yaml:"name"`
	ConstructionType string           `yaml:"construction_type,omitempty"`
	Homebuilder      string           `yaml:"homebuilder,omitempty"`
	UnitType         string           `yaml:"unit_type,omitempty"`
	StreetAddress    string           `yaml:"street_address,omitempty"`
	Coordinates      [][2]float64     `yaml:"coordinates,omitempty"`
	Beds             *int             `yaml:"beds,omitempty"`
	Storeys          *int             `yaml:"storeys,omitempty"`
	SquareFootage    *int             `yaml:"square_footage,omitempty"`
	MinimumSalePrice *int             `yaml:"minimum_sale_price,omitempty"`
	Contractor       string           `yaml:"contractor,omitempty"`
	Notes            string           `yaml:"notes,omitempty"`
	Progress         []ProgressImport `yaml:"progress,omitempty"`
}

// ProgressImport records the state of one stage. Dates are YYYY-MM-DD.
type ProgressImport struct {
	Stage          string  `yaml:"stage"`
	ProgrammeStart *string `yaml:"programme_start,omitempty"`
	ProgrammeEnd   *string `yaml:"programme_end,omitempty"`
	PlannedStart   *string `yaml:"planned_start,omitempty"`
	PlannedEnd     *string `yaml:"planned_end,omitempty"`
	ActualStart    *string `yaml:"actual_start,omitempty"`
	ActualEnd      *string `yaml:"actual_end,omitempty"`
	Completion     *int    `yaml:"completion,omitempty"`
	Notes          string  `yaml:"notes,omitempty"`
}

// LoadSiteSchema reads and parses a site seed YAML file.
func LoadSiteSchema(path string) (*SiteSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSiteSchema(data)
}

func ParseSiteSchema(data []byte) (*SiteSchema, error) {
	var schema SiteSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
