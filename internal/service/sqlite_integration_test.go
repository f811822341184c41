package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/app"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type sqliteEnv struct {
	slots       *sqlite.SlotRepository
	clients     *sqlite.ClientRepository
	coaches     *sqlite.CoachRepository
	dispatcher  *recordingDispatcher
	coordinator *BookingCoordinator
	publisher   *SlotPublisher
	clientSvc   *ClientService
	coach       *model.Coach
}

func newSQLiteEnv(t *testing.T) *sqliteEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, app.NewSQLiteMigrator(db, zap.NewNop()).Run(ctx))

	logger := zaptest.NewLogger(t)
	env := &sqliteEnv{
		slots:      sqlite.NewSlotRepository(db),
		clients:    sqlite.NewClientRepository(db),
		coaches:    sqlite.NewCoachRepository(db),
		dispatcher: &recordingDispatcher{},
	}
	env.coordinator = NewBookingCoordinator(env.slots, NewEligibilityGate(env.clients, logger), logger)
	env.publisher = NewSlotPublisher(env.slots, env.clients, env.coaches, env.dispatcher, "http://localhost:8080", time.UTC, logger)
	env.clientSvc = NewClientService(env.clients, env.coaches, logger)

	coach, err := NewCoachService(env.coaches, logger).SaveProfile(ctx, uuid.New(), CoachProfile{
		Name:  "Coach Anna",
		Email: "anna@example.com",
		Sport: "tennis",
	})
	require.NoError(t, err)
	env.coach = coach

	return env
}

func (e *sqliteEnv) addClient(t *testing.T, email, name string, status model.ClientStatus) *model.Client {
	t.Helper()
	ctx := context.Background()

	client, err := e.clientSvc.RequestLessons(ctx, e.coach.ID, model.Identity{Email: email, Name: name})
	require.NoError(t, err)

	if status != model.ClientStatusPending {
		client, err = e.clientSvc.SetStatus(ctx, e.coach.ID, client.ID, status)
		require.NoError(t, err)
	}
	return client
}

func (e *sqliteEnv) openSlot(t *testing.T) *model.Slot {
	t.Helper()

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	res, err := e.publisher.OpenSlot(context.Background(), e.coach.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	return res.Slot
}

func TestConcurrentReservationsExactlyOneWins(t *testing.T) {
	env := newSQLiteEnv(t)

	const k = 16
	claims := make([]model.Identity, k)
	for i := range claims {
		email := uuid.NewString()[:8] + "@example.com"
		env.addClient(t, email, "Client "+email, model.ClientStatusApproved)
		claims[i] = model.Identity{Email: email, Name: "client " + email}
	}
	slot := env.openSlot(t)

	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		errs   = make([]error, k)
		winner = -1
		mu     sync.Mutex
	)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := env.coordinator.ReserveSlot(context.Background(), slot.ID, claims[i])
			errs[i] = err
			if err == nil {
				mu.Lock()
				winner = i
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	}
	require.Equal(t, 1, successes)

	stored, err := env.slots.GetByID(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusReserved, stored.Status)
	require.NotNil(t, stored.ReservedBy)
	assert.Equal(t, claims[winner].Email, *stored.ReservedBy)
	assert.NotNil(t, stored.ReservedAt)
}

func TestReservedSlotStaysReserved(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()

	env.addClient(t, "jane@example.com", "Jane Doe", model.ClientStatusApproved)
	env.addClient(t, "bob@example.com", "Bob Smith", model.ClientStatusApproved)
	slot := env.openSlot(t)

	reserved, err := env.coordinator.ReserveSlot(ctx, slot.ID, model.Identity{Email: "jane@example.com", Name: "jane doe"})
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusReserved, reserved.Status)

	for i := 0; i < 3; i++ {
		_, err = env.coordinator.ReserveSlot(ctx, slot.ID, model.Identity{Email: "jane@example.com", Name: "Jane Doe"})
		assert.ErrorIs(t, err, ErrAlreadyBooked)
		_, err = env.coordinator.ReserveSlot(ctx, slot.ID, model.Identity{Email: "bob@example.com", Name: "Bob Smith"})
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	}

	state, err := env.coordinator.ReservationStatus(ctx, slot.ID, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, ReservationReservedByYou, state)

	assert.ErrorIs(t, env.publisher.DeleteSlot(ctx, env.coach.ID, slot.ID), ErrAlreadyBooked)
}

func TestPendingClientCannotBookUncontestedSlot(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()

	env.addClient(t, "jane@example.com", "Jane Doe", model.ClientStatusPending)
	slot := env.openSlot(t)

	_, err := env.coordinator.ReserveSlot(ctx, slot.ID, model.Identity{Email: "jane@example.com", Name: "Jane Doe"})
	assert.ErrorIs(t, err, ErrNotApproved)

	stored, err := env.slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
	assert.Nil(t, stored.ReservedBy)
}

func TestNameMatchBoundary(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()

	env.addClient(t, "jane@example.com", "Jane Doe", model.ClientStatusApproved)

	mismatch := env.openSlot(t)
	_, err := env.coordinator.ReserveSlot(ctx, mismatch.ID, model.Identity{Email: "jane@example.com", Name: "Jane D."})
	assert.ErrorIs(t, err, ErrNameMismatch)

	_, err = env.coordinator.ReserveSlot(ctx, mismatch.ID, model.Identity{Email: "jane@example.com", Name: "jane doe"})
	assert.NoError(t, err)
}

func TestOpeningSlotNotifiesOnlyApprovedClients(t *testing.T) {
	env := newSQLiteEnv(t)

	env.addClient(t, "a@example.com", "A", model.ClientStatusApproved)
	env.addClient(t, "b@example.com", "B", model.ClientStatusApproved)
	env.addClient(t, "c@example.com", "C", model.ClientStatusPending)

	env.openSlot(t)

	require.Len(t, env.dispatcher.messages, 1)
	assert.Equal(t, 2, env.dispatcher.attempts)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, env.dispatcher.messages[0].Recipients)
}

func TestDuplicateRequestLeavesOneRecord(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()

	_, err := env.clientSvc.RequestLessons(ctx, env.coach.ID, model.Identity{Email: "jane@example.com", Name: "Jane Doe"})
	require.NoError(t, err)

	_, err = env.clientSvc.RequestLessons(ctx, env.coach.ID, model.Identity{Email: "Jane@Example.com", Name: "Jane Doe"})
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	clients, err := env.clientSvc.List(ctx, env.coach.ID, "")
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestWeekSlotsFromStore(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()

	monday := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	for _, start := range []time.Time{monday, monday.AddDate(0, 0, 2), monday.AddDate(0, 0, 7)} {
		_, err := env.publisher.OpenSlot(ctx, env.coach.ID, start, start.Add(time.Hour))
		require.NoError(t, err)
	}

	weekStart, slots, err := env.publisher.WeekSlots(ctx, env.coach.ID, monday.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.True(t, weekStart.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	require.Len(t, slots, 2)
	assert.True(t, slots[0].StartTime.Equal(monday))
}

func TestControlCharactersRejectedBeforeStore(t *testing.T) {
	env := newSQLiteEnv(t)
	ctx := context.Background()
	coachSvc := NewCoachService(env.coaches, zap.NewNop())

	_, err := coachSvc.SaveProfile(ctx, uuid.New(), CoachProfile{
		Name:  "Anna\r\nBcc: victim@evil.test",
		Email: "anna2@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "name (singleline)")

	_, err = coachSvc.SaveProfile(ctx, uuid.New(), CoachProfile{
		Name:  "Boris",
		Email: "boris@example.com",
		Sport: "tennis\nX-Header: 1",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "sport (singleline)")

	coaches, err := env.coaches.List(ctx)
	require.NoError(t, err)
	assert.Len(t, coaches, 1)

	_, err = env.clientSvc.RequestLessons(ctx, env.coach.ID, model.Identity{
		Email: "jane@example.com",
		Name:  "Jane\r\nDoe",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	clients, err := env.clientSvc.List(ctx, env.coach.ID, "")
	require.NoError(t, err)
	assert.Empty(t, clients)
}
