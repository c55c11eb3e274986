package importer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateSiteSchema checks the schema before conversion and returns every
// problem found.
func ValidateSiteSchema(schema *SiteSchema) []error {
	var errs []error

	stagesByType := make(map[string]map[string]bool)
	errs = append(errs, validateTypes(schema.ConstructionTypes, stagesByType)...)

	builders := make(map[string]bool)
	for i, h := range schema.Homebuilders {
		if h.Name == "" {
			errs = append(errs, fmt.Errorf("homebuilders[%d].name is required", i))
			continue
		}
		if builders[h.Name] {
			errs = append(errs, fmt.Errorf("homebuilders[%d]: duplicate name %q", i, h.Name))
		}
		builders[h.Name] = true
	}

	unitTypes := make(map[string]bool)
	for i, u := range schema.UnitTypes {
		if u.Name == "" {
			errs = append(errs, fmt.Errorf("unit_types[%d].name is required", i))
			continue
		}
		if unitTypes[u.Name] {
			errs = append(errs, fmt.Errorf("unit_types[%d]: duplicate name %q", i, u.Name))
		}
		unitTypes[u.Name] = true
	}

	slugs := make(map[string]bool)
	for i, m := range schema.Maps {
		prefix := fmt.Sprintf("maps[%d]", i)
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !slugPattern.MatchString(m.Slug) {
			errs = append(errs, fmt.Errorf("%s.slug %q must be lowercase letters and digits separated by hyphens", prefix, m.Slug))
		} else if slugs[m.Slug] {
			errs = append(errs, fmt.Errorf("%s: duplicate slug %q", prefix, m.Slug))
		}
		slugs[m.Slug] = true

		for j, p := range m.Plots {
			errs = append(errs, validatePlot(fmt.Sprintf("%s.plots[%d]", prefix, j), p, stagesByType, builders, unitTypes)...)
		}
	}

	return errs
}

func validateTypes(types []ConstructionTypeImport, stagesByType map[string]map[string]bool) []error {
	var errs []error
	for i, t := range types {
		prefix := fmt.Sprintf("construction_types[%d]", i)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if _, dup := stagesByType[t.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate name %q", prefix, t.Name))
			continue
		}
		if len(t.Stages) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one stage is required", prefix))
		}

		names := make(map[string]bool)
		orders := make(map[int]bool)
		for j, s := range t.Stages {
			sp := fmt.Sprintf("%s.stages[%d]", prefix, j)
			if s.Name == "" {
				errs = append(errs, fmt.Errorf("%s.name is required", sp))
			} else if names[s.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate stage name %q", sp, s.Name))
			}
			names[s.Name] = true

			order := stageOrder(s, j)
			if orders[order] {
				errs = append(errs, fmt.Errorf("%s: duplicate sort_order %d", sp, order))
			}
			orders[order] = true

			if s.Color != "" && !colorPattern.MatchString(s.Color) {
				errs = append(errs, fmt.Errorf("%s.color %q must be a #rrggbb hex colour", sp, s.Color))
			}
		}
		stagesByType[t.Name] = names
	}
	return errs
}

func validatePlot(prefix string, p PlotImport, stagesByType map[string]map[string]bool, builders, unitTypes map[string]bool) []error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	}
	if p.Homebuilder != "" && !builders[p.Homebuilder] {
		errs = append(errs, fmt.Errorf("%s.homebuilder %q is not defined", prefix, p.Homebuilder))
	}
	if p.UnitType != "" && !unitTypes[p.UnitType] {
		errs = append(errs, fmt.Errorf("%s.unit_type %q is not defined", prefix, p.UnitType))
	}

	stages, typeKnown := stagesByType[p.ConstructionType]
	if p.ConstructionType != "" && !typeKnown {
		errs = append(errs, fmt.Errorf("%s.construction_type %q is not defined", prefix, p.ConstructionType))
	}
	if p.ConstructionType == "" && len(p.Progress) > 0 {
		errs = append(errs, fmt.Errorf("%s: progress requires a construction_type", prefix))
	}

	for k, pr := range p.Progress {
		pp := fmt.Sprintf("%s.progress[%d]", prefix, k)
		if typeKnown && !stages[pr.Stage] {
			errs = append(errs, fmt.Errorf("%s.stage %q is not a stage of %q", pp, pr.Stage, p.ConstructionType))
		}
		for field, v := range map[string]*string{
			"programme_start": pr.ProgrammeStart, "programme_end": pr.ProgrammeEnd,
			"planned_start": pr.PlannedStart, "planned_end": pr.PlannedEnd,
			"actual_start": pr.ActualStart, "actual_end": pr.ActualEnd,
		} {
			errs = append(errs, validateOptionalDate(pp+"."+field, v)...)
		}
		if pr.Completion != nil && (*pr.Completion < 0 || *pr.Completion > 100) {
			errs = append(errs, fmt.Errorf("%s.completion %d: %w", pp, *pr.Completion, domain.ErrInvalidPercentage))
		}
	}
	return errs
}

func validateOptionalDate(field string, dateStr *string) []error {
	if dateStr == nil {
		return nil
	}
	if _, err := time.Parse(dateLayout, *dateStr); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *dateStr)}
	}
	return nil
}

func stageOrder(s StageImport, index int) int {
	if s.SortOrder != nil {
		return *s.SortOrder
	}
	return index + 1
}
