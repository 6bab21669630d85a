package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/internal/service"
)

const owner = "U1234"

func text(m *service.SessionManager, input string) *model.Reply {
	return m.Handle(context.Background(), owner, model.CommandNone, input)
}

func command(m *service.SessionManager, cmd model.Command) *model.Reply {
	return m.Handle(context.Background(), owner, cmd, "")
}

func TestSessionManager_FullReservationFlow(t *testing.T) {
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	m := newSessions(store, clock, 15)

	reply := command(m, model.CommandReserve)
	assert.Equal(t, model.ReplyPromptEquipment, reply.Kind)
	assert.Equal(t, 15, reply.EquipmentCount)

	reply = text(m, "5")
	assert.Equal(t, model.ReplyPromptStart, reply.Kind)

	reply = text(m, "2024/12/25 14:00")
	assert.Equal(t, model.ReplyPromptEnd, reply.Kind)

	reply = text(m, "2024/12/25 16:00")
	require.Equal(t, model.ReplyReserved, reply.Kind)
	require.NotNil(t, reply.Reservation)
	assert.Equal(t, 5, reply.Reservation.EquipmentID)
	assert.Equal(t, owner, reply.Reservation.OwnerID)
	assert.True(t, at(12, 25, 14, 0).Equal(reply.Reservation.Start))
	assert.True(t, at(12, 25, 16, 0).Equal(reply.Reservation.End))

	sess, ok := m.Session(owner)
	require.True(t, ok)
	assert.Equal(t, model.Idle{}, sess.Step)
	assert.Equal(t, 1, store.Count())
}

func TestSessionManager_StartStepKeepsEquipment(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)

	command(m, model.CommandReserve)
	text(m, "5")

	sess, _ := m.Session(owner)
	require.Equal(t, model.AwaitingStart{EquipmentID: 5}, sess.Step)

	reply := text(m, "2024/12/25 14:00")
	assert.Equal(t, model.ReplyPromptEnd, reply.Kind)

	sess, _ = m.Session(owner)
	end, ok := sess.Step.(model.AwaitingEnd)
	require.True(t, ok, "got %T", sess.Step)
	assert.Equal(t, 5, end.EquipmentID)
	assert.True(t, at(12, 25, 14, 0).Equal(end.Start))
	assert.Equal(t, "awaiting_end", sess.StepName)
}

func TestSessionManager_EquipmentValidation(t *testing.T) {
	for _, input := range []string{"0", "16", "-1", "abc", "5abc", "", "3.5", "99999999999999999999"} {
		t.Run(input, func(t *testing.T) {
			clock := newTestClock(epoch)
			m := newSessions(newStore(clock, nil), clock, 15)
			command(m, model.CommandReserve)

			reply := text(m, input)
			assert.Equal(t, model.ReplyEquipmentOutOfRange, reply.Kind)
			assert.Equal(t, 15, reply.EquipmentCount)

			sess, _ := m.Session(owner)
			assert.Equal(t, model.AwaitingEquipment{}, sess.Step)
		})
	}
}

func TestSessionManager_EquipmentBoundsFollowConfiguredCount(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 3)

	command(m, model.CommandReserve)
	assert.Equal(t, model.ReplyEquipmentOutOfRange, text(m, "4").Kind)
	assert.Equal(t, model.ReplyPromptStart, text(m, " 3 ").Kind)
}

func TestSessionManager_StartValidation(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)
	command(m, model.CommandReserve)
	text(m, "2")

	assert.Equal(t, model.ReplyInvalidDateTime, text(m, "next tuesday").Kind)
	assert.Equal(t, model.ReplyStartInPast, text(m, "2024/11/30 10:00").Kind)

	sess, _ := m.Session(owner)
	assert.Equal(t, model.AwaitingStart{EquipmentID: 2}, sess.Step)

	assert.Equal(t, model.ReplyPromptEnd, text(m, "2024/12/01 09:00").Kind, "start equal to now is accepted")
}

func TestSessionManager_EndValidation(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)
	command(m, model.CommandReserve)
	text(m, "2")
	text(m, "12/25 14:00")

	assert.Equal(t, model.ReplyInvalidDateTime, text(m, "later").Kind)
	assert.Equal(t, model.ReplyEndNotAfterStart, text(m, "12/25 14:00").Kind)
	assert.Equal(t, model.ReplyEndNotAfterStart, text(m, "12/25 13:00").Kind)

	sess, _ := m.Session(owner)
	end, ok := sess.Step.(model.AwaitingEnd)
	require.True(t, ok)
	assert.Equal(t, 2, end.EquipmentID)

	assert.Equal(t, model.ReplyReserved, text(m, "12/25 15:00").Kind)
}

func TestSessionManager_ConflictReturnsToIdleWithSchedule(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	existing, err := store.Create(ctx, "someone-else", 3, at(12, 25, 14, 0), at(12, 25, 16, 0))
	require.NoError(t, err)

	m := newSessions(store, clock, 15)
	command(m, model.CommandReserve)
	text(m, "3")
	text(m, "2024/12/25 15:00")
	reply := text(m, "2024/12/25 17:00")

	require.Equal(t, model.ReplyConflict, reply.Kind)
	assert.Equal(t, 3, reply.EquipmentID)
	require.Len(t, reply.Reservations, 1)
	assert.Equal(t, existing.ID, reply.Reservations[0].ID)

	sess, _ := m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)
	assert.Equal(t, 1, store.Count())
}

func TestSessionManager_CancelFlow(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	mine, err := store.Create(ctx, owner, 1, at(12, 5, 9, 0), at(12, 5, 10, 0))
	require.NoError(t, err)
	theirs, err := store.Create(ctx, "other", 2, at(12, 5, 9, 0), at(12, 5, 10, 0))
	require.NoError(t, err)

	m := newSessions(store, clock, 15)

	reply := command(m, model.CommandCancel)
	require.Equal(t, model.ReplyCancelPrompt, reply.Kind)
	require.Len(t, reply.Reservations, 1)
	assert.Equal(t, mine.ID, reply.Reservations[0].ID)

	reply = text(m, fmt.Sprint(mine.ID))
	require.Equal(t, model.ReplyCancelled, reply.Kind)
	assert.Equal(t, mine.ID, reply.Reservation.ID)

	sess, _ := m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)

	command(m, model.CommandCancel)
	assert.Equal(t, model.ReplyCancelNotFound, text(m, fmt.Sprint(theirs.ID)).Kind)
	assert.Equal(t, 1, store.Count(), "someone else's reservation is untouched")

	sess, _ = m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)
}

func TestSessionManager_CancelTargetNotAnInteger(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)

	command(m, model.CommandCancel)
	assert.Equal(t, model.ReplyCancelNotFound, text(m, "the first one").Kind)

	sess, _ := m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)
}

func TestSessionManager_CommandAbandonsDraft(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)

	command(m, model.CommandReserve)
	text(m, "4")
	text(m, "2024/12/25 14:00")

	reply := command(m, model.CommandReserve)
	assert.Equal(t, model.ReplyPromptEquipment, reply.Kind)
	sess, _ := m.Session(owner)
	assert.Equal(t, model.AwaitingEquipment{}, sess.Step)

	text(m, "4")
	reply = command(m, model.CommandList)
	assert.Equal(t, model.ReplyActiveList, reply.Kind)
	sess, _ = m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)

	command(m, model.CommandCancel)
	reply = command(m, model.CommandHelp)
	assert.Equal(t, model.ReplyHelp, reply.Kind)
	sess, _ = m.Session(owner)
	assert.Equal(t, model.Idle{}, sess.Step)
}

func TestSessionManager_IdleTextGetsHelp(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)

	_, ok := m.Session(owner)
	assert.False(t, ok)

	reply := text(m, "hello?")
	assert.Equal(t, model.ReplyHelp, reply.Kind)
	assert.Equal(t, 15, reply.EquipmentCount)

	sess, ok := m.Session(owner)
	require.True(t, ok)
	assert.Equal(t, model.Idle{}, sess.Step)
	assert.Equal(t, epoch, sess.UpdatedAt)
}

func TestSessionManager_ListReportsStoredCount(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	m := newSessions(store, clock, 15)

	reply := command(m, model.CommandList)
	assert.Equal(t, 0, reply.Stored)
	assert.Empty(t, reply.Reservations)

	_, err := store.Create(ctx, "x", 1, at(12, 1, 10, 0), at(12, 1, 11, 0))
	require.NoError(t, err)
	clock.Set(at(12, 2, 0, 0))

	reply = command(m, model.CommandList)
	assert.Equal(t, 1, reply.Stored)
	assert.Empty(t, reply.Reservations)
}

func TestSessionManager_UsersAreIndependent(t *testing.T) {
	clock := newTestClock(epoch)
	m := newSessions(newStore(clock, nil), clock, 15)
	ctx := context.Background()

	m.Handle(ctx, "alice", model.CommandReserve, "")
	m.Handle(ctx, "bob", model.CommandCancel, "")
	m.Handle(ctx, "alice", model.CommandNone, "9")

	alice, _ := m.Session("alice")
	bob, _ := m.Session("bob")
	assert.Equal(t, model.AwaitingStart{EquipmentID: 9}, alice.Step)
	assert.Equal(t, model.AwaitingCancelTarget{}, bob.Step)
}

func TestSessionManager_ConcurrentUsersCannotDoubleBook(t *testing.T) {
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	m := newSessions(store, clock, 15)
	ctx := context.Background()

	var wg sync.WaitGroup
	replies := make([]model.ReplyKind, 20)
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			m.Handle(ctx, user, model.CommandReserve, "")
			m.Handle(ctx, user, model.CommandNone, "1")
			m.Handle(ctx, user, model.CommandNone, "2024/12/25 14:00")
			replies[i] = m.Handle(ctx, user, model.CommandNone, "2024/12/25 15:00").Kind
		}(i)
	}
	wg.Wait()

	reserved := 0
	for _, kind := range replies {
		if kind == model.ReplyReserved {
			reserved++
		} else {
			assert.Equal(t, model.ReplyConflict, kind)
		}
	}
	assert.Equal(t, 1, reserved)
	assert.Equal(t, 1, store.Count())
}

func TestSessionManager_SameUserMessagesAreSerialized(t *testing.T) {
	clock := newTestClock(epoch)
	store := newStore(clock, nil)
	m := newSessions(store, clock, 15)
	ctx := context.Background()

	m.Handle(ctx, owner, model.CommandReserve, "")

	var wg sync.WaitGroup
	kinds := make([]model.ReplyKind, 3)
	inputs := []string{"6", "6", "6"}
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kinds[i] = m.Handle(ctx, owner, model.CommandNone, inputs[i]).Kind
		}(i)
	}
	wg.Wait()

	// Exactly one message is consumed as the equipment number; the others
	// arrive at the start step and fail date parsing.
	counts := map[model.ReplyKind]int{}
	for _, k := range kinds {
		counts[k]++
	}
	assert.Equal(t, 1, counts[model.ReplyPromptStart])
	assert.Equal(t, 2, counts[model.ReplyInvalidDateTime])

	sess, _ := m.Session(owner)
	assert.Equal(t, model.AwaitingStart{EquipmentID: 6}, sess.Step)
}
