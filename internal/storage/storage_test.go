package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/config"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.StoreDriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "slots.db"),
	}

	st, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	coach := &model.Coach{ID: uuid.New(), Name: "Coach Anna", Email: "anna@example.com"}
	require.NoError(t, st.Coaches.Upsert(ctx, coach))

	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	slot := &model.Slot{ID: uuid.New(), CoachID: coach.ID, StartTime: start, EndTime: start.Add(time.Hour), Status: model.SlotStatusOpen}
	require.NoError(t, st.Slots.Create(ctx, slot))

	count, err := st.Slots.CountOpenSince(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "mongo"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")
}
