package contract

import (
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

// RecordProgressRequest creates or updates the progress row for a plot stage.
// Nil fields are left unchanged.
type RecordProgressRequest struct {
	PlotID               string     `json:"plotId"`
	ConstructionStageID  string     `json:"constructionStageId"`
	ProgrammeStartDate   *time.Time `json:"programmeStartDate,omitempty"`
	ProgrammeEndDate     *time.Time `json:"programmeEndDate,omitempty"`
	PlannedStartDate     *time.Time `json:"plannedStartDate,omitempty"`
	PlannedEndDate       *time.Time `json:"plannedEndDate,omitempty"`
	ActualStartDate      *time.Time `json:"actualStartDate,omitempty"`
	ActualEndDate        *time.Time `json:"actualEndDate,omitempty"`
	CompletionPercentage *int       `json:"completionPercentage,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	RecordedBy           string     `json:"recordedBy,omitempty"`
	Reason               string     `json:"reason,omitempty"`
	// Now overrides the clock, for tests.
	Now *time.Time `json:"-"`
}

type RecordProgressResponse struct {
	Progress          ProgressView `json:"progress"`
	Created           bool         `json:"created"`
	PlanChanged       bool         `json:"planChanged"`
	PercentageClamped bool         `json:"percentageClamped"`
	Attempts          int          `json:"attempts"`
}

// ProgressView is a progress row with its stage and schedule status resolved.
type ProgressView struct {
	ID                   string             `json:"id"`
	PlotID               string             `json:"plotId"`
	ConstructionStageID  string             `json:"constructionStageId"`
	StageName            string             `json:"stageName"`
	SortOrder            int                `json:"sortOrder"`
	StageColor           domain.ColorToken  `json:"stageColor"`
	ProgrammeStartDate   *time.Time         `json:"programmeStartDate"`
	ProgrammeEndDate     *time.Time         `json:"programmeEndDate"`
	PlannedStartDate     *time.Time         `json:"plannedStartDate"`
	PlannedEndDate       *time.Time         `json:"plannedEndDate"`
	ActualStartDate      *time.Time         `json:"actualStartDate"`
	ActualEndDate        *time.Time         `json:"actualEndDate"`
	CurrentPlanVersion   int                `json:"currentPlanVersion"`
	CompletionPercentage int                `json:"completionPercentage"`
	Notes                string             `json:"notes"`
	RecordedBy           string             `json:"recordedBy"`
	Status               domain.StageStatus `json:"status"`
	StatusColor          domain.ColorToken  `json:"statusColor"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

type PlanHistoryView struct {
	ID               string     `json:"id"`
	VersionNumber    int        `json:"versionNumber"`
	PlannedStartDate *time.Time `json:"plannedStartDate"`
	PlannedEndDate   *time.Time `json:"plannedEndDate"`
	Reason           string     `json:"reason"`
	ChangedBy        string     `json:"changedBy"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// HistoryCheck is the result of verifying one progress row's plan history.
type HistoryCheck struct {
	ProgressID     string `json:"progressId"`
	StageName      string `json:"stageName"`
	CurrentVersion int    `json:"currentVersion"`
	HistoryRows    int    `json:"historyRows"`
	Problem        string `json:"problem,omitempty"`
}

func (c HistoryCheck) OK() bool { return c.Problem == "" }

func NewPlanHistoryView(h domain.ConstructionPlanHistory) PlanHistoryView {
	return PlanHistoryView{
		ID:               h.ID,
		VersionNumber:    h.VersionNumber,
		PlannedStartDate: h.PlannedStartDate,
		PlannedEndDate:   h.PlannedEndDate,
		Reason:           h.Reason,
		ChangedBy:        h.ChangedBy,
		CreatedAt:        h.CreatedAt,
	}
}
