package service

import (
	"context"
	"sort"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/resolver"
)

type dashboardService struct {
	maps       repository.SiteMapRepo
	plots      repository.PlotRepo
	progress   repository.ProgressRepo
	classifier resolver.Classifier
	observer   UseCaseObserver
}

func NewDashboardService(
	maps repository.SiteMapRepo,
	plots repository.PlotRepo,
	progress repository.ProgressRepo,
	delayWindow time.Duration,
	observers ...UseCaseObserver,
) DashboardService {
	return &dashboardService{
		maps:       maps,
		plots:      plots,
		progress:   progress,
		classifier: resolver.NewClassifier(delayWindow),
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *dashboardService) MapSummary(ctx context.Context, slug string, now time.Time) (resp *contract.MapSummaryResponse, err error) {
	fields := map[string]any{"slug": slug}
	done := observe(ctx, s.observer, "map-summary", fields)
	defer func() { done(err) }()

	m, err := s.maps.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	plots, byPlot, err := s.loadMap(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	resp = &contract.MapSummaryResponse{
		Map: contract.MapView{
			ID:            m.ID,
			Name:          m.Name,
			Slug:          m.Slug,
			ImagePath:     m.ImagePath,
			NaturalWidth:  m.NaturalWidth,
			NaturalHeight: m.NaturalHeight,
		},
		Plots:       make([]contract.PlotSummaryView, 0, len(plots)),
		GeneratedAt: now,
	}
	for _, p := range plots {
		resp.Plots = append(resp.Plots, toSummaryView(p, byPlot[p.ID]))
	}
	fields["plots"] = len(plots)
	return resp, nil
}

func (s *dashboardService) PlotDetail(ctx context.Context, plotID string, now time.Time) (*contract.PlotDetailResponse, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByPlot(ctx, plotID)
	if err != nil {
		return nil, err
	}

	resp := &contract.PlotDetailResponse{
		Summary: toSummaryView(plot, rows),
		MapID:   plot.MapID,
		Address: plot.StreetAddress,
		Stages:  make([]contract.ProgressView, 0, len(rows)),
	}
	for _, r := range resolver.SortStages(rows) {
		resp.Stages = append(resp.Stages, toProgressView(r, s.classifier, now))
	}
	return resp, nil
}

func (s *dashboardService) Matrix(ctx context.Context, slug string, now time.Time) (resp *contract.MatrixResponse, err error) {
	done := observe(ctx, s.observer, "stage-matrix", map[string]any{"slug": slug})
	defer func() { done(err) }()

	var plots []*domain.Plot
	byPlot := make(map[string][]domain.ConstructionProgress)
	if slug == "" {
		maps, err := s.maps.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range maps {
			mp, rows, err := s.loadMap(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			plots = append(plots, mp...)
			for id, r := range rows {
				byPlot[id] = r
			}
		}
	} else {
		m, err := s.maps.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if plots, byPlot, err = s.loadMap(ctx, m.ID); err != nil {
			return nil, err
		}
	}

	stages := stageColumns(byPlot)
	resp = &contract.MatrixResponse{
		Stages:      stages,
		Counts:      make(map[domain.StageStatus]int, len(domain.AllStageStatuses)),
		GeneratedAt: now,
	}
	for _, p := range plots {
		rows := byPlot[p.ID]
		byName := make(map[string]domain.ConstructionProgress, len(rows))
		for _, r := range rows {
			byName[r.StageName()] = r
		}

		row := contract.MatrixRow{Summary: toSummaryView(p, rows)}
		for _, name := range stages {
			r, ok := byName[name]
			if !ok {
				row.Cells = append(row.Cells, contract.MatrixCell{
					StageName: name,
					Status:    domain.StageNotStarted,
					Color:     domain.NotStartedColor,
					Missing:   true,
				})
				continue
			}
			v := toProgressView(r, s.classifier, now)
			resp.Counts[v.Status]++
			row.Cells = append(row.Cells, contract.MatrixCell{
				StageName:  name,
				Status:     v.Status,
				Color:      v.StatusColor,
				Percentage: v.CompletionPercentage,
			})
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func (s *dashboardService) loadMap(ctx context.Context, mapID string) ([]*domain.Plot, map[string][]domain.ConstructionProgress, error) {
	plots, err := s.plots.ListByMap(ctx, mapID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.progress.ListByMap(ctx, mapID)
	if err != nil {
		return nil, nil, err
	}
	byPlot := make(map[string][]domain.ConstructionProgress, len(plots))
	for _, r := range rows {
		byPlot[r.PlotID] = append(byPlot[r.PlotID], r)
	}
	return plots, byPlot, nil
}

// stageColumns returns the distinct stage names ordered by the lowest sort
// order each name appears with, then by name.
func stageColumns(byPlot map[string][]domain.ConstructionProgress) []string {
	order := make(map[string]int)
	for _, rows := range byPlot {
		for _, r := range rows {
			if r.Stage == nil {
				continue
			}
			if cur, ok := order[r.Stage.Name]; !ok || r.Stage.SortOrder < cur {
				order[r.Stage.Name] = r.Stage.SortOrder
			}
		}
	}
	names := make([]string, 0, len(order))
	for n := range order {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if order[names[i]] != order[names[j]] {
			return order[names[i]] < order[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
