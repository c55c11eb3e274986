package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/importer"
	"github.com/alexanderramin/sitetrack/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadSiteSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportSchema(ctx, schema)
}

// ImportSchema writes the whole site in one transaction; any failure leaves
// the database untouched.
func (s *importService) ImportSchema(ctx context.Context, schema *importer.SiteSchema) (result *ImportResult, err error) {
	fields := map[string]any{}
	done := observe(ctx, s.observer, "import-site", fields)
	defer func() { done(err) }()

	if errs := importer.ValidateSiteSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	now := time.Now().UTC()
	bundle := importer.Convert(schema, now)
	result = &ImportResult{
		ConstructionTypeCount: len(bundle.ConstructionTypes),
		HomebuilderCount:      len(bundle.Homebuilders),
		UnitTypeCount:         len(bundle.UnitTypes),
		MapCount:              len(bundle.Maps),
		PlotCount:             len(bundle.Plots),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		types := repository.NewSQLiteConstructionTypeRepo(tx)
		for _, ct := range bundle.ConstructionTypes {
			if err := types.Create(ctx, ct); err != nil {
				return fmt.Errorf("creating construction type %q: %w", ct.Name, err)
			}
		}
		builders := repository.NewSQLiteHomebuilderRepo(tx)
		for _, h := range bundle.Homebuilders {
			if err := builders.Create(ctx, h); err != nil {
				return fmt.Errorf("creating homebuilder %q: %w", h.Name, err)
			}
		}
		unitTypes := repository.NewSQLiteUnitTypeRepo(tx)
		for _, u := range bundle.UnitTypes {
			if err := unitTypes.Create(ctx, u); err != nil {
				return fmt.Errorf("creating unit type %q: %w", u.Name, err)
			}
		}
		maps := repository.NewSQLiteSiteMapRepo(tx)
		for _, m := range bundle.Maps {
			if err := maps.Create(ctx, m); err != nil {
				return fmt.Errorf("creating map %q: %w", m.Slug, err)
			}
		}

		typeByID := make(map[string]int, len(bundle.ConstructionTypes))
		for i, ct := range bundle.ConstructionTypes {
			typeByID[ct.ID] = i
		}
		plots := repository.NewSQLitePlotRepo(tx)
		for _, seed := range bundle.Plots {
			p := seed.Plot
			applyCentroid(p)
			if err := plots.Create(ctx, p); err != nil {
				return fmt.Errorf("creating plot %q: %w", p.Name, err)
			}
			if !p.IsConfigured() {
				continue
			}
			rows, err := seedStageRows(ctx, tx, p.ID, bundle.ConstructionTypes[typeByID[*p.ConstructionTypeID]], now)
			if err != nil {
				return err
			}
			result.ProgressRowCount += len(rows)
			for _, row := range rows {
				upd, ok := seed.Updates[row.ConstructionStageID]
				if !ok {
					continue
				}
				if _, err := applyAndStore(ctx, tx, *row, upd, now); err != nil {
					return fmt.Errorf("plot %q stage %q: %w", p.Name, row.StageName(), err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["plots"] = result.PlotCount
	fields["progress_rows"] = result.ProgressRowCount
	return result, nil
}
