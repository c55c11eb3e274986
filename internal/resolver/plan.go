package resolver

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

var (
	ErrHistoryGap         = errors.New("plan history versions are not contiguous from 1")
	ErrHistoryTipMismatch = errors.New("latest plan history does not match current planned dates")
)

// ProgressUpdate carries the fields a caller wants to change on a progress row.
// A nil pointer means "not supplied"; supplied values never clear a field.
type ProgressUpdate struct {
	ProgrammeStartDate *time.Time
	ProgrammeEndDate   *time.Time
	PlannedStartDate   *time.Time
	PlannedEndDate     *time.Time
	ActualStartDate    *time.Time
	ActualEndDate      *time.Time

	CompletionPercentage *int

	Notes      string
	RecordedBy string
	// Reason is recorded on the plan history row when the planned window changes.
	Reason string
}

func (u ProgressUpdate) normalized() ProgressUpdate {
	u.ProgrammeStartDate = utcPtr(u.ProgrammeStartDate)
	u.ProgrammeEndDate = utcPtr(u.ProgrammeEndDate)
	u.PlannedStartDate = utcPtr(u.PlannedStartDate)
	u.PlannedEndDate = utcPtr(u.PlannedEndDate)
	u.ActualStartDate = utcPtr(u.ActualStartDate)
	u.ActualEndDate = utcPtr(u.ActualEndDate)
	return u
}

// HasPlannedDates reports whether either planned date was supplied.
func (u ProgressUpdate) HasPlannedDates() bool {
	return u.PlannedStartDate != nil || u.PlannedEndDate != nil
}

// PlanUpdateResult is the outcome of ApplyPlannedDateUpdate.
type PlanUpdateResult struct {
	Updated domain.ConstructionProgress
	// NewHistory is non-nil only when the planned window changed.
	NewHistory *domain.ConstructionPlanHistory
	// ExpectedVersion is the plan version the update was computed from;
	// persistence must compare-and-swap against it.
	ExpectedVersion   int
	PercentageClamped bool
}

// PlanChanged reports whether the update produced a new plan version.
func (r PlanUpdateResult) PlanChanged() bool { return r.NewHistory != nil }

// ApplyPlannedDateUpdate derives the next state of a progress row. existing is
// not modified.
//
// A change to either planned date bumps CurrentPlanVersion by one and emits a
// history row for the new version. A row that has never had a planned window
// is at version 1 without history, so its first window fills version 1.
// Dates are stored at second precision, so incoming dates are truncated to the
// second before comparison. A zone, format or sub-second change alone is not a
// new plan.
func ApplyPlannedDateUpdate(existing domain.ConstructionProgress, upd ProgressUpdate, now time.Time) (PlanUpdateResult, error) {
	upd = upd.normalized()
	out := existing.Clone()
	res := PlanUpdateResult{ExpectedVersion: existing.CurrentPlanVersion}

	var err error
	if out.ProgrammeStartDate, err = setBaseline("programme start", existing.ProgrammeStartDate, upd.ProgrammeStartDate); err != nil {
		return res, err
	}
	if out.ProgrammeEndDate, err = setBaseline("programme end", existing.ProgrammeEndDate, upd.ProgrammeEndDate); err != nil {
		return res, err
	}
	if out.ActualStartDate, err = setFact("actual start", existing.ActualStartDate, upd.ActualStartDate); err != nil {
		return res, err
	}
	if out.ActualEndDate, err = setFact("actual end", existing.ActualEndDate, upd.ActualEndDate); err != nil {
		return res, err
	}
	if err := checkActualDates(out.ActualStartDate, out.ActualEndDate); err != nil {
		return res, err
	}

	if plannedChanged(existing, upd) {
		firstPlan := existing.PlannedStartDate == nil && existing.PlannedEndDate == nil && existing.CurrentPlanVersion <= 1
		version := existing.CurrentPlanVersion + 1
		reason := domain.CoalesceStr(upd.Reason, domain.ReasonPlanUpdated)
		if firstPlan {
			version = 1
			reason = domain.CoalesceStr(upd.Reason, domain.ReasonInitialPlan)
		}

		out.PlannedStartDate = utcPtr(domain.TimeFromPtrs(upd.PlannedStartDate, existing.PlannedStartDate))
		out.PlannedEndDate = utcPtr(domain.TimeFromPtrs(upd.PlannedEndDate, existing.PlannedEndDate))
		out.CurrentPlanVersion = version

		res.NewHistory = &domain.ConstructionPlanHistory{
			ConstructionProgressID: existing.ID,
			VersionNumber:          version,
			PlannedStartDate:       utcPtr(out.PlannedStartDate),
			PlannedEndDate:         utcPtr(out.PlannedEndDate),
			Reason:                 reason,
			ChangedBy:              upd.RecordedBy,
			CreatedAt:              now,
		}
	}
	if out.CurrentPlanVersion < 1 {
		out.CurrentPlanVersion = 1
	}

	if upd.CompletionPercentage != nil {
		out.CompletionPercentage, res.PercentageClamped = ClampPercentage(*upd.CompletionPercentage)
	}
	if upd.Notes != "" {
		out.Notes = upd.Notes
	}
	if upd.RecordedBy != "" {
		out.RecordedBy = upd.RecordedBy
	}
	out.UpdatedAt = now

	res.Updated = out
	return res, nil
}

// SeedProgress builds the first progress row for a (plot, stage) pair. When
// planned dates are supplied the returned history row is version 1.
func SeedProgress(plotID, stageID string, upd ProgressUpdate, now time.Time) (domain.ConstructionProgress, *domain.ConstructionPlanHistory, error) {
	blank := domain.ConstructionProgress{
		PlotID:              plotID,
		ConstructionStageID: stageID,
		CurrentPlanVersion:  1,
		CreatedAt:           now,
	}
	res, err := ApplyPlannedDateUpdate(blank, upd, now)
	if err != nil {
		return domain.ConstructionProgress{}, nil, err
	}
	return res.Updated, res.NewHistory, nil
}

// MostRecentPlanVersion returns the history row with the highest version, or nil.
func MostRecentPlanVersion(history []domain.ConstructionPlanHistory) *domain.ConstructionPlanHistory {
	if len(history) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(history); i++ {
		if history[i].VersionNumber > history[best].VersionNumber {
			best = i
		}
	}
	tip := history[best]
	return &tip
}

// ValidateHistory checks that history holds exactly versions 1..CurrentPlanVersion
// and that the latest version matches the row's planned window. A row that has
// never been planned has no history.
func ValidateHistory(p domain.ConstructionProgress, history []domain.ConstructionPlanHistory) error {
	if len(history) == 0 {
		if p.PlannedStartDate == nil && p.PlannedEndDate == nil && p.CurrentPlanVersion <= 1 {
			return nil
		}
		return fmt.Errorf("progress %s at version %d has no history: %w", p.ID, p.CurrentPlanVersion, ErrHistoryGap)
	}

	versions := make([]int, len(history))
	for i, h := range history {
		versions[i] = h.VersionNumber
	}
	sort.Ints(versions)
	for i, v := range versions {
		if v != i+1 {
			return fmt.Errorf("progress %s: expected version %d, found %d: %w", p.ID, i+1, v, ErrHistoryGap)
		}
	}
	if versions[len(versions)-1] != p.CurrentPlanVersion {
		return fmt.Errorf("progress %s: history ends at %d but current version is %d: %w",
			p.ID, versions[len(versions)-1], p.CurrentPlanVersion, ErrHistoryGap)
	}

	tip := MostRecentPlanVersion(history)
	if !domain.SameInstant(tip.PlannedStartDate, p.PlannedStartDate) || !domain.SameInstant(tip.PlannedEndDate, p.PlannedEndDate) {
		return fmt.Errorf("progress %s version %d: %w", p.ID, tip.VersionNumber, ErrHistoryTipMismatch)
	}
	return nil
}

func plannedChanged(existing domain.ConstructionProgress, upd ProgressUpdate) bool {
	if upd.PlannedStartDate != nil && !domain.SameInstant(upd.PlannedStartDate, existing.PlannedStartDate) {
		return true
	}
	return upd.PlannedEndDate != nil && !domain.SameInstant(upd.PlannedEndDate, existing.PlannedEndDate)
}

// setBaseline allows filling an empty programme date but never replacing one.
func setBaseline(field string, current, next *time.Time) (*time.Time, error) {
	if next == nil || domain.SameInstant(current, next) {
		return current, nil
	}
	if current != nil {
		return nil, fmt.Errorf("%s already set to %s: %w", field, current.Format(time.DateOnly), domain.ErrImmutableBaseline)
	}
	return utcPtr(next), nil
}

// setFact allows recording an actual date once.
func setFact(field string, current, next *time.Time) (*time.Time, error) {
	if next == nil || domain.SameInstant(current, next) {
		return current, nil
	}
	if current != nil {
		return nil, fmt.Errorf("%s already recorded as %s: %w", field, current.Format(time.DateOnly), domain.ErrActualDateAlreadySet)
	}
	return utcPtr(next), nil
}

func checkActualDates(start, end *time.Time) error {
	if end == nil {
		return nil
	}
	if start == nil {
		return fmt.Errorf("actual end without actual start: %w", domain.ErrInconsistentActualDates)
	}
	if end.Before(*start) {
		return fmt.Errorf("actual end %s before actual start %s: %w",
			end.Format(time.DateOnly), start.Format(time.DateOnly), domain.ErrInconsistentActualDates)
	}
	return nil
}

// utcPtr copies t in UTC at the second precision the store keeps.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Second)
	return &v
}
