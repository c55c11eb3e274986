package domain

// StageStatus is the schedule classification of a single construction stage.
type StageStatus string

const (
	StageNotStarted StageStatus = "not-started"
	StageOnTime     StageStatus = "on-time"
	StageDelayed    StageStatus = "delayed"
	StageOverdue    StageStatus = "overdue"
	StageCompleted  StageStatus = "completed"
)

// AllStageStatuses lists every stage status in display order.
var AllStageStatuses = []StageStatus{
	StageNotStarted, StageOnTime, StageDelayed, StageOverdue, StageCompleted,
}

type PlotStatus string

const (
	PlotNotStarted    PlotStatus = "NOT_STARTED"
	PlotInProgress    PlotStatus = "IN_PROGRESS"
	PlotCompleted     PlotStatus = "COMPLETED"
	PlotNotConfigured PlotStatus = "NOT_CONFIGURED"
)

// ColorToken is a display hex colour such as "#6b7280".
type ColorToken string

// NotStartedColor is the neutral marker colour for plots with no resolved stage.
const NotStartedColor ColorToken = "#6b7280"

// Default plan history reasons.
const (
	ReasonInitialPlan = "Initial plan"
	ReasonPlanUpdated = "Plan updated"
)
