package domain

import "time"

// ConstructionProgress records the schedule and completion of one stage on one plot.
type ConstructionProgress struct {
	ID                  string
	PlotID              string
	ConstructionStageID string

	// Baseline. Never changes once set.
	ProgrammeStartDate *time.Time
	ProgrammeEndDate   *time.Time

	// Current plan. Every change appends a ConstructionPlanHistory row.
	PlannedStartDate   *time.Time
	PlannedEndDate     *time.Time
	CurrentPlanVersion int

	// Facts. Set once, never cleared.
	ActualStartDate *time.Time
	ActualEndDate   *time.Time

	CompletionPercentage int
	Notes                string
	RecordedBy           string

	CreatedAt time.Time
	UpdatedAt time.Time

	Stage       *ConstructionStage
	PlanHistory []ConstructionPlanHistory
}

// ConstructionPlanHistory is one revision of a progress row's planned window.
type ConstructionPlanHistory struct {
	ID                     string
	ConstructionProgressID string
	VersionNumber          int
	PlannedStartDate       *time.Time
	PlannedEndDate         *time.Time
	Reason                 string
	ChangedBy              string
	CreatedAt              time.Time
}

func (p *ConstructionProgress) IsStarted() bool  { return p.ActualStartDate != nil }
func (p *ConstructionProgress) IsFinished() bool { return p.ActualEndDate != nil }

// IsDone reports whether the stage counts as complete for plot aggregation:
// either finished or marked at 100%.
func (p *ConstructionProgress) IsDone() bool {
	return p.ActualEndDate != nil || p.CompletionPercentage == 100
}

// HasRecordedDates reports whether the row holds any date or a plan history.
// Completion alone does not count.
func (p *ConstructionProgress) HasRecordedDates() bool {
	return p.ProgrammeStartDate != nil || p.ProgrammeEndDate != nil ||
		p.PlannedStartDate != nil || p.PlannedEndDate != nil ||
		p.ActualStartDate != nil || p.ActualEndDate != nil ||
		p.CurrentPlanVersion > 1
}

// StageName returns the attached stage's name or "".
func (p *ConstructionProgress) StageName() string {
	if p.Stage == nil {
		return ""
	}
	return p.Stage.Name
}

// Clone returns a deep copy so callers can derive new states without aliasing.
func (p ConstructionProgress) Clone() ConstructionProgress {
	out := p
	out.ProgrammeStartDate = cloneTime(p.ProgrammeStartDate)
	out.ProgrammeEndDate = cloneTime(p.ProgrammeEndDate)
	out.PlannedStartDate = cloneTime(p.PlannedStartDate)
	out.PlannedEndDate = cloneTime(p.PlannedEndDate)
	out.ActualStartDate = cloneTime(p.ActualStartDate)
	out.ActualEndDate = cloneTime(p.ActualEndDate)
	if p.Stage != nil {
		s := *p.Stage
		out.Stage = &s
	}
	if p.PlanHistory != nil {
		out.PlanHistory = make([]ConstructionPlanHistory, len(p.PlanHistory))
		copy(out.PlanHistory, p.PlanHistory)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
