package resolver

import (
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

// DefaultDelayWindow is how close to the planned end an in-flight stage
// must be before it is reported as delayed.
const DefaultDelayWindow = 7 * 24 * time.Hour

// Classifier classifies stage schedules against a configurable delay window.
type Classifier struct {
	DelayWindow time.Duration
}

// NewClassifier returns a Classifier; a non-positive window means DefaultDelayWindow.
func NewClassifier(window time.Duration) Classifier {
	if window <= 0 {
		window = DefaultDelayWindow
	}
	return Classifier{DelayWindow: window}
}

// ClassifyStageStatus classifies with the default seven-day delay window.
func ClassifyStageStatus(plannedStart, plannedEnd, actualStart, actualEnd *time.Time, now time.Time) (domain.StageStatus, error) {
	return NewClassifier(DefaultDelayWindow).Classify(plannedStart, plannedEnd, actualStart, actualEnd, now)
}

// Classify evaluates the rules in order; the first match wins.
// A finished stage is completed no matter how late it finished.
func (c Classifier) Classify(plannedStart, plannedEnd, actualStart, actualEnd *time.Time, now time.Time) (domain.StageStatus, error) {
	if actualEnd != nil && actualStart == nil {
		return "", fmt.Errorf("actual end %s without actual start: %w",
			actualEnd.Format(time.DateOnly), domain.ErrInconsistentActualDates)
	}
	if actualEnd != nil {
		return domain.StageCompleted, nil
	}
	if plannedStart == nil {
		return domain.StageNotStarted, nil
	}

	if actualStart != nil {
		if plannedEnd != nil && now.After(*plannedEnd) {
			return domain.StageOverdue, nil
		}
		if plannedEnd != nil && now.After(plannedEnd.Add(-c.window())) {
			return domain.StageDelayed, nil
		}
		return domain.StageOnTime, nil
	}

	if now.After(*plannedStart) {
		return domain.StageOverdue, nil
	}
	return domain.StageNotStarted, nil
}

// ClassifyProgress classifies a stored progress row.
func (c Classifier) ClassifyProgress(p *domain.ConstructionProgress, now time.Time) (domain.StageStatus, error) {
	return c.Classify(p.PlannedStartDate, p.PlannedEndDate, p.ActualStartDate, p.ActualEndDate, now)
}

func (c Classifier) window() time.Duration {
	if c.DelayWindow <= 0 {
		return DefaultDelayWindow
	}
	return c.DelayWindow
}

// StatusColor maps a stage status to its dashboard colour token.
func StatusColor(s domain.StageStatus) domain.ColorToken {
	switch s {
	case domain.StageOnTime:
		return "#22c55e"
	case domain.StageDelayed:
		return "#f59e0b"
	case domain.StageOverdue:
		return "#ef4444"
	case domain.StageCompleted:
		return "#3b82f6"
	default:
		return domain.NotStartedColor
	}
}
