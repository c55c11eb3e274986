package api

import (
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

// recordProgressPayload is the POST /construction-progress body. Dates are
// YYYY-MM-DD or RFC 3339 strings; empty means unchanged.
type recordProgressPayload struct {
	PlotID               string `json:"plotId"`
	StageID              string `json:"stageId"`
	ProgrammeStartDate   string `json:"programmeStartDate"`
	ProgrammeEndDate     string `json:"programmeEndDate"`
	PlannedStartDate     string `json:"plannedStartDate"`
	PlannedEndDate       string `json:"plannedEndDate"`
	ActualStartDate      string `json:"actualStartDate"`
	ActualEndDate        string `json:"actualEndDate"`
	CompletionPercentage *int   `json:"completionPercentage"`
	Notes                string `json:"notes"`
	RecordedBy           string `json:"recordedBy"`
	PlanChangeReason     string `json:"planChangeReason"`
}

func (p recordProgressPayload) toRequest() (contract.RecordProgressRequest, error) {
	req := contract.RecordProgressRequest{
		PlotID:               p.PlotID,
		ConstructionStageID:  p.StageID,
		CompletionPercentage: p.CompletionPercentage,
		Notes:                p.Notes,
		RecordedBy:           p.RecordedBy,
		Reason:               p.PlanChangeReason,
	}
	dates := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"programmeStartDate", p.ProgrammeStartDate, &req.ProgrammeStartDate},
		{"programmeEndDate", p.ProgrammeEndDate, &req.ProgrammeEndDate},
		{"plannedStartDate", p.PlannedStartDate, &req.PlannedStartDate},
		{"plannedEndDate", p.PlannedEndDate, &req.PlannedEndDate},
		{"actualStartDate", p.ActualStartDate, &req.ActualStartDate},
		{"actualEndDate", p.ActualEndDate, &req.ActualEndDate},
	}
	for _, d := range dates {
		t, err := contract.ParseDate(d.raw)
		if err != nil {
			return req, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = t
	}
	return req, nil
}

// setCompletionPayload is the PATCH /construction-progress body.
type setCompletionPayload struct {
	PlotID               string `json:"plotId"`
	StageID              string `json:"stageId"`
	CompletionPercentage *int   `json:"completionPercentage"`
}

type createPlotPayload struct {
	Name               string       `json:"name"`
	MapID              string       `json:"mapId"`
	MapSlug            string       `json:"mapSlug"`
	Coordinates        [][2]float64 `json:"coordinates"`
	StreetAddress      string       `json:"streetAddress"`
	HomebuilderID      *string      `json:"homebuilderId"`
	ConstructionTypeID *string      `json:"constructionTypeId"`
	UnitTypeID         *string      `json:"unitTypeId"`
	NumberOfBeds       *int         `json:"numberOfBeds"`
	NumberOfStoreys    *int         `json:"numberOfStoreys"`
	SquareFootage      *int         `json:"squareFootage"`
	MinimumSalePrice   *int         `json:"minimumSalePrice"`
	Description        string       `json:"description"`
	Contractor         string       `json:"contractor"`
	Notes              string       `json:"notes"`
}

func (p createPlotPayload) toPlot(mapID string) *domain.Plot {
	return &domain.Plot{
		MapID:              mapID,
		Name:               p.Name,
		Coordinates:        p.Coordinates,
		StreetAddress:      p.StreetAddress,
		HomebuilderID:      p.HomebuilderID,
		ConstructionTypeID: p.ConstructionTypeID,
		UnitTypeID:         p.UnitTypeID,
		NumberOfBeds:       p.NumberOfBeds,
		NumberOfStoreys:    p.NumberOfStoreys,
		SquareFootage:      p.SquareFootage,
		MinimumSalePrice:   p.MinimumSalePrice,
		Description:        p.Description,
		Contractor:         p.Contractor,
		Notes:              p.Notes,
	}
}

type plotView struct {
	ID                 string       `json:"id"`
	MapID              string       `json:"mapId"`
	Name               string       `json:"name"`
	Latitude           float64      `json:"latitude"`
	Longitude          float64      `json:"longitude"`
	Coordinates        [][2]float64 `json:"coordinates,omitempty"`
	StreetAddress      string       `json:"streetAddress,omitempty"`
	HomebuilderID      *string      `json:"homebuilderId"`
	ConstructionTypeID *string      `json:"constructionTypeId"`
	UnitTypeID         *string      `json:"unitTypeId"`
	NumberOfBeds       *int         `json:"numberOfBeds"`
	NumberOfStoreys    *int         `json:"numberOfStoreys"`
	SquareFootage      *int         `json:"squareFootage"`
	MinimumSalePrice   *int         `json:"minimumSalePrice"`
	CreatedAt          time.Time    `json:"createdAt"`
}

func newPlotView(p *domain.Plot) plotView {
	return plotView{
		ID:                 p.ID,
		MapID:              p.MapID,
		Name:               p.Name,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		Coordinates:        p.Coordinates,
		StreetAddress:      p.StreetAddress,
		HomebuilderID:      p.HomebuilderID,
		ConstructionTypeID: p.ConstructionTypeID,
		UnitTypeID:         p.UnitTypeID,
		NumberOfBeds:       p.NumberOfBeds,
		NumberOfStoreys:    p.NumberOfStoreys,
		SquareFootage:      p.SquareFootage,
		MinimumSalePrice:   p.MinimumSalePrice,
		CreatedAt:          p.CreatedAt,
	}
}

type stageView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	SortOrder int               `json:"sortOrder"`
	Color     domain.ColorToken `json:"color"`
}

type constructionTypeView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Stages      []stageView `json:"constructionStages"`
}

func newConstructionTypeView(t *domain.ConstructionType) constructionTypeView {
	v := constructionTypeView{ID: t.ID, Name: t.Name, Description: t.Description, Stages: []stageView{}}
	for _, st := range t.OrderedStages() {
		v.Stages = append(v.Stages, stageView{ID: st.ID, Name: st.Name, SortOrder: st.SortOrder, Color: st.Color})
	}
	return v
}

type namedView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type plannedDeliveryView struct {
	ID          string    `json:"id"`
	PlannedDate string    `json:"plannedDate"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type salesUpdateView struct {
	ID                     string                `json:"id"`
	PlotID                 string                `json:"plotId"`
	ProgrammedDeliveryDate string                `json:"programmedDeliveryDate,omitempty"`
	ActualDeliveryDate     string                `json:"actualDeliveryDate,omitempty"`
	Notes                  string                `json:"notes,omitempty"`
	CreatedBy              string                `json:"createdBy,omitempty"`
	CreatedAt              time.Time             `json:"createdAt"`
	PlannedDeliveryDates   []plannedDeliveryView `json:"plannedDeliveryDates"`
}

func newSalesUpdateView(su *domain.SalesUpdate) salesUpdateView {
	v := salesUpdateView{
		ID:                     su.ID,
		PlotID:                 su.PlotID,
		ProgrammedDeliveryDate: contract.FormatDate(su.ProgrammedDeliveryDate),
		ActualDeliveryDate:     contract.FormatDate(su.ActualDeliveryDate),
		Notes:                  su.Notes,
		CreatedBy:              su.CreatedBy,
		CreatedAt:              su.CreatedAt,
		PlannedDeliveryDates:   []plannedDeliveryView{},
	}
	for _, d := range su.PlannedDeliveryDates {
		pd := d.PlannedDate
		v.PlannedDeliveryDates = append(v.PlannedDeliveryDates, plannedDeliveryView{
			ID:          d.ID,
			PlannedDate: contract.FormatDate(&pd),
			Reason:      d.Reason,
			CreatedAt:   d.CreatedAt,
		})
	}
	return v
}

type salesUpdatePayload struct {
	PlotID                 string `json:"plotId"`
	ProgrammedDeliveryDate string `json:"programmedDeliveryDate"`
	ActualDeliveryDate     string `json:"actualDeliveryDate"`
	Notes                  string `json:"notes"`
	CreatedBy              string `json:"createdBy"`
	PlannedDeliveryDates   []struct {
		PlannedDate string `json:"plannedDate"`
		Reason      string `json:"reason"`
	} `json:"plannedDeliveryDates"`
}

func (p salesUpdatePayload) toSalesUpdate() (*domain.SalesUpdate, error) {
	su := &domain.SalesUpdate{PlotID: p.PlotID, Notes: p.Notes, CreatedBy: p.CreatedBy}
	var err error
	if su.ProgrammedDeliveryDate, err = contract.ParseDate(p.ProgrammedDeliveryDate); err != nil {
		return nil, fmt.Errorf("programmedDeliveryDate: %w", err)
	}
	if su.ActualDeliveryDate, err = contract.ParseDate(p.ActualDeliveryDate); err != nil {
		return nil, fmt.Errorf("actualDeliveryDate: %w", err)
	}
	for i, d := range p.PlannedDeliveryDates {
		t, err := contract.ParseDate(d.PlannedDate)
		if err != nil {
			return nil, fmt.Errorf("plannedDeliveryDates[%d]: %w", i, err)
		}
		if t == nil {
			return nil, fmt.Errorf("plannedDeliveryDates[%d]: plannedDate is required", i)
		}
		su.PlannedDeliveryDates = append(su.PlannedDeliveryDates, domain.PlannedDeliveryDate{PlannedDate: *t, Reason: d.Reason})
	}
	return su, nil
}
