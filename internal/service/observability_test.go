package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/logger"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captureObserver struct {
	events []UseCaseEvent
}

func (c *captureObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.events = append(c.events, e)
}

func TestRecord_EmitsUseCaseEvent(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	site := seedSite(t, svc)

	capture := &captureObserver{}
	progress := NewProgressService(svc.progressRepo, svc.historyRepo, testutil.NewTestUoW(conn),
		ProgressOptions{Retries: 1}, capture)

	_, err := progress.SetCompletion(context.Background(), site.plot.ID, site.stage(t, "Roof").ID, 50)
	require.NoError(t, err)

	require.Len(t, capture.events, 1)
	e := capture.events[0]
	assert.Equal(t, "record-progress", e.Name)
	assert.True(t, e.Success)
	assert.Equal(t, site.plot.ID, e.Fields["plot_id"])
	assert.Equal(t, 1, e.Fields["attempts"])
}

func TestLogUseCaseObserver_WritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := NewLogUseCaseObserver(logger.FromZap(zap.New(core)))

	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "import-site", Success: true, Fields: map[string]any{"plots": 2}})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "record-progress", Err: errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "import-site", entries[0].ContextMap()["use_case"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["plots"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewLogUseCaseObserver_NilLogger(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}

func TestRecord_InvalidInputStillObserved(t *testing.T) {
	capture := &captureObserver{}
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	progress := NewProgressService(svc.progressRepo, svc.historyRepo, testutil.NewTestUoW(conn), ProgressOptions{}, capture)

	_, err := progress.Record(context.Background(), contract.RecordProgressRequest{})
	require.Error(t, err)
	require.Len(t, capture.events, 1)
	assert.False(t, capture.events[0].Success)
}
