package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/autoscheduler-api-go/pkg/database"
	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return New(db)
}

func hours(h float64) *float64 { return &h }

func TestStore_LoadUnknownProject(t *testing.T) {
	st := newTestStore(t)
	_, _, err := st.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStore_UpsertAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	due := time.Date(2026, 11, 2, 17, 0, 0, 0, time.UTC)

	require.NoError(t, st.UpsertItems(ctx, "alpha", []models.WorkItem{
		{ID: "a", Kind: models.KindDelegable, Priority: models.PriorityHigh, EstimatedHours: hours(6), DueDate: &due},
		{ID: "b", Kind: models.KindPersonal, Priority: models.PriorityLow},
	}))
	require.NoError(t, st.UpsertItems(ctx, "alpha", []models.WorkItem{
		{ID: "a", Title: "renamed", Kind: models.KindDelegable, Priority: models.PriorityUrgent, EstimatedHours: hours(3)},
	}))
	require.NoError(t, st.UpsertItems(ctx, "beta", []models.WorkItem{
		{ID: "a", Kind: models.KindDelegable, Priority: models.PriorityLow, EstimatedHours: hours(1)},
	}))
	require.NoError(t, st.ReplacePeople(ctx, "alpha", []models.Person{{ID: "zoe"}, {ID: "adam", Name: "Adam"}}))

	items, people, err := st.Load(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "renamed", items[0].Title)
	assert.Equal(t, models.PriorityUrgent, items[0].Priority)
	assert.Equal(t, 3.0, items[0].Hours())
	assert.Nil(t, items[0].DueDate)
	assert.Equal(t, models.KindPersonal, items[1].Kind)

	// roster order is preserved
	assert.Equal(t, []models.Person{{ID: "zoe"}, {ID: "adam", Name: "Adam"}}, people)

	ids, err := st.ProjectIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}

func TestStore_ReplacePeople(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.ReplacePeople(ctx, "alpha", []models.Person{{ID: "p1"}, {ID: "p2"}}))
	require.NoError(t, st.ReplacePeople(ctx, "alpha", []models.Person{{ID: "p3"}}))

	_, people, err := st.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []models.Person{{ID: "p3"}}, people)
}

func TestStore_ApplySchedule(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertItems(ctx, "alpha", []models.WorkItem{
		{ID: "a", Kind: models.KindDelegable, Priority: models.PriorityHigh, EstimatedHours: hours(6)},
	}))

	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	res := models.SchedulingResult{
		Scheduled: []models.ScheduledItem{{
			ItemID: "a", SuggestedStart: start, SuggestedDue: start.AddDate(0, 0, 1), AssignedTo: "p1",
		}},
		Conflicts: []models.Conflict{},
	}

	runID, err := st.ApplySchedule(ctx, "alpha", res, 100, "api")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	items, _, err := st.Load(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, items[0].Pinned())
	assert.Equal(t, "p1", items[0].Assignee)
	assert.True(t, start.Equal(*items[0].StartDate))
	assert.True(t, start.AddDate(0, 0, 1).Equal(*items[0].DueDate))

	runs, err := st.Runs(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.True(t, runs[0].Applied)
	assert.Equal(t, 1, runs[0].ScheduledCount)
	assert.Equal(t, "api", runs[0].Trigger)
}

func TestStore_ApplyScheduleRollsBackOnUnknownItem(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertItems(ctx, "alpha", []models.WorkItem{
		{ID: "a", Kind: models.KindDelegable, Priority: models.PriorityHigh, EstimatedHours: hours(6)},
	}))

	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	res := models.SchedulingResult{Scheduled: []models.ScheduledItem{
		{ItemID: "a", SuggestedStart: start, SuggestedDue: start, AssignedTo: "p1"},
		{ItemID: "ghost", SuggestedStart: start, SuggestedDue: start, AssignedTo: "p1"},
	}}

	_, err := st.ApplySchedule(ctx, "alpha", res, 0, "api")
	require.Error(t, err)

	items, _, err := st.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, items[0].Pinned())

	runs, err := st.Runs(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
