package importer

import (
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/resolver"
	"github.com/google/uuid"
)

// SiteBundle is a validated schema converted to domain objects with all name
// references resolved to ids.
type SiteBundle struct {
	ConstructionTypes []*domain.ConstructionType
	Homebuilders      []*domain.Homebuilder
	UnitTypes         []*domain.UnitType
	Maps              []*domain.SiteMap
	Plots             []PlotSeed
}

// PlotSeed is a plot plus the stage updates to apply once its progress rows exist.
type PlotSeed struct {
	Plot    *domain.Plot
	Updates map[string]resolver.ProgressUpdate // keyed by stage id
}

// Convert assumes the schema passed ValidateSiteSchema.
func Convert(schema *SiteSchema, now time.Time) *SiteBundle {
	b := &SiteBundle{}
	typeIDs := make(map[string]*domain.ConstructionType)
	builderIDs := make(map[string]string)
	unitTypeIDs := make(map[string]string)

	for _, t := range schema.ConstructionTypes {
		ct := &domain.ConstructionType{
			ID:          uuid.New().String(),
			Name:        t.Name,
			Description: t.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for i, s := range t.Stages {
			ct.Stages = append(ct.Stages, domain.ConstructionStage{
				ID:                 uuid.New().String(),
				ConstructionTypeID: ct.ID,
				Name:               s.Name,
				Description:        s.Description,
				SortOrder:          stageOrder(s, i),
				Color:              domain.ColorToken(domain.CoalesceStr(s.Color, string(domain.NotStartedColor))),
				CreatedAt:          now,
				UpdatedAt:          now,
			})
		}
		typeIDs[t.Name] = ct
		b.ConstructionTypes = append(b.ConstructionTypes, ct)
	}

	for _, h := range schema.Homebuilders {
		hb := &domain.Homebuilder{
			ID:           uuid.New().String(),
			Name:         h.Name,
			ContactEmail: h.ContactEmail,
			ContactPhone: h.ContactPhone,
			Address:      h.Address,
			Website:      h.Website,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		builderIDs[h.Name] = hb.ID
		b.Homebuilders = append(b.Homebuilders, hb)
	}

	for _, u := range schema.UnitTypes {
		ut := &domain.UnitType{
			ID:          uuid.New().String(),
			Name:        u.Name,
			Description: u.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		unitTypeIDs[u.Name] = ut.ID
		b.UnitTypes = append(b.UnitTypes, ut)
	}

	for _, m := range schema.Maps {
		sm := &domain.SiteMap{
			ID:            uuid.New().String(),
			Name:          m.Name,
			Slug:          m.Slug,
			ImagePath:     m.ImagePath,
			NaturalWidth:  m.Width,
			NaturalHeight: m.Height,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		b.Maps = append(b.Maps, sm)

		for _, p := range m.Plots {
			plot := &domain.Plot{
				ID:               uuid.New().String(),
				MapID:            sm.ID,
				Name:             p.Name,
				StreetAddress:    p.StreetAddress,
				Coordinates:      p.Coordinates,
				NumberOfBeds:     p.Beds,
				NumberOfStoreys:  p.Storeys,
				SquareFootage:    p.SquareFootage,
				MinimumSalePrice: p.MinimumSalePrice,
				Contractor:       p.Contractor,
				Notes:            p.Notes,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if id, ok := builderIDs[p.Homebuilder]; ok {
				plot.HomebuilderID = &id
			}
			if id, ok := unitTypeIDs[p.UnitType]; ok {
				plot.UnitTypeID = &id
			}

			seed := PlotSeed{Plot: plot, Updates: make(map[string]resolver.ProgressUpdate)}
			if ct, ok := typeIDs[p.ConstructionType]; ok {
				plot.ConstructionTypeID = &ct.ID
				for _, pr := range p.Progress {
					for _, st := range ct.Stages {
						if st.Name == pr.Stage {
							seed.Updates[st.ID] = toUpdate(pr)
						}
					}
				}
			}
			b.Plots = append(b.Plots, seed)
		}
	}
	return b
}

func toUpdate(pr ProgressImport) resolver.ProgressUpdate {
	return resolver.ProgressUpdate{
		ProgrammeStartDate:   parseOptionalDate(pr.ProgrammeStart),
		ProgrammeEndDate:     parseOptionalDate(pr.ProgrammeEnd),
		PlannedStartDate:     parseOptionalDate(pr.PlannedStart),
		PlannedEndDate:       parseOptionalDate(pr.PlannedEnd),
		ActualStartDate:      parseOptionalDate(pr.ActualStart),
		ActualEndDate:        parseOptionalDate(pr.ActualEnd),
		CompletionPercentage: pr.Completion,
		Notes:                pr.Notes,
		RecordedBy:           "import",
	}
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
