package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestIsDone(t *testing.T) {
	end := testNow
	cases := []struct {
		name string
		p    ConstructionProgress
		done bool
	}{
		{"untouched", ConstructionProgress{}, false},
		{"partial", ConstructionProgress{CompletionPercentage: 99}, false},
		{"full percentage", ConstructionProgress{CompletionPercentage: 100}, true},
		{"actual end", ConstructionProgress{ActualEndDate: &end}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.done, tc.p.IsDone(), tc.name)
	}
}

func TestHasRecordedDates(t *testing.T) {
	d := testNow
	assert.False(t, (&ConstructionProgress{CurrentPlanVersion: 1, CompletionPercentage: 40}).HasRecordedDates())
	assert.True(t, (&ConstructionProgress{CurrentPlanVersion: 1, PlannedEndDate: &d}).HasRecordedDates())
	assert.True(t, (&ConstructionProgress{CurrentPlanVersion: 1, ActualStartDate: &d}).HasRecordedDates())
	assert.True(t, (&ConstructionProgress{CurrentPlanVersion: 1, ProgrammeStartDate: &d}).HasRecordedDates())
	assert.True(t, (&ConstructionProgress{CurrentPlanVersion: 3}).HasRecordedDates())
}

func TestClone_DoesNotAlias(t *testing.T) {
	start := testNow
	orig := ConstructionProgress{
		PlannedStartDate: &start,
		Stage:            &ConstructionStage{Name: "Foundations"},
		PlanHistory:      []ConstructionPlanHistory{{VersionNumber: 1}},
	}

	c := orig.Clone()
	*c.PlannedStartDate = testNow.AddDate(0, 0, 3)
	c.Stage.Name = "Roof"
	c.PlanHistory[0].VersionNumber = 9

	assert.Equal(t, testNow, *orig.PlannedStartDate)
	assert.Equal(t, "Foundations", orig.Stage.Name)
	assert.Equal(t, 1, orig.PlanHistory[0].VersionNumber)
}

func TestStageName_NoStage(t *testing.T) {
	p := ConstructionProgress{}
	assert.Equal(t, "", p.StageName())
}

func TestSameInstant(t *testing.T) {
	utc := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	plus2 := utc.In(time.FixedZone("UTC+2", 2*60*60))
	other := utc.Add(time.Second)

	assert.True(t, SameInstant(nil, nil))
	assert.False(t, SameInstant(&utc, nil))
	assert.False(t, SameInstant(nil, &utc))
	assert.True(t, SameInstant(&utc, &plus2), "same instant in different zones")
	assert.False(t, SameInstant(&utc, &other))
}

func TestOrderedStages(t *testing.T) {
	ct := &ConstructionType{Stages: []ConstructionStage{
		{Name: "Roof", SortOrder: 3},
		{Name: "Foundations", SortOrder: 1},
		{Name: "Walls", SortOrder: 2},
	}}
	got := ct.OrderedStages()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Foundations", "Walls", "Roof"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "Roof", ct.Stages[0].Name, "original order untouched")
}
