package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
	"github.com/capitalize-ai/equipment-booking/pkg/metrics"
)

// SessionManager runs the per-user reservation and cancellation flows. Each
// call advances exactly one step.
type SessionManager struct {
	reservations   *ReservationService
	parser         DateTimeParser
	clock          Clock
	equipmentCount int
	logger         *logger.Logger

	sessions map[string]*userSession
	mu       sync.Mutex
}

// userSession is locked for the whole of a step so that two messages from the
// same user never interleave. Different users hold different locks.
type userSession struct {
	mu        sync.Mutex
	step      model.Step
	updatedAt time.Time
}

// NewSessionManager creates a session manager for a pool of equipmentCount units.
func NewSessionManager(
	reservations *ReservationService,
	parser DateTimeParser,
	clock Clock,
	equipmentCount int,
	log *logger.Logger,
) *SessionManager {
	return &SessionManager{
		reservations:   reservations,
		parser:         parser,
		clock:          clock,
		equipmentCount: equipmentCount,
		logger:         log,
		sessions:       make(map[string]*userSession),
	}
}

// EquipmentCount returns the size of the equipment pool.
func (m *SessionManager) EquipmentCount() int {
	return m.equipmentCount
}

// Handle processes one inbound message. A recognized command restarts the
// conversation from that command, dropping any draft; otherwise text is the
// input for the current step.
func (m *SessionManager) Handle(ctx context.Context, ownerID string, cmd model.Command, text string) *model.Reply {
	sess := m.session(ownerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return m.step(ctx, sess, ownerID, cmd, text)
}

// HandleMessage recognizes text against the sender's current step and then
// processes it like Handle. Recognition happens under the sender's lock, so it
// sees the step the text is applied to.
func (m *SessionManager) HandleMessage(ctx context.Context, ownerID, text string, recognizer CommandRecognizer) (model.Command, *model.Reply) {
	sess := m.session(ownerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd := recognizer.Recognize(ctx, text, sess.step)
	return cmd, m.step(ctx, sess, ownerID, cmd, text)
}

// step must be called with sess.mu held.
func (m *SessionManager) step(ctx context.Context, sess *userSession, ownerID string, cmd model.Command, text string) *model.Reply {
	from := sess.step
	var reply *model.Reply
	if cmd != model.CommandNone {
		if _, idle := from.(model.Idle); !idle {
			m.logger.Debug("draft abandoned",
				zap.String("owner_id", ownerID),
				zap.String("step", from.Name()),
				zap.String("command", string(cmd)),
			)
		}
		reply = m.begin(ctx, sess, ownerID, cmd)
	} else {
		reply = m.advance(ctx, sess, ownerID, text)
	}
	sess.updatedAt = m.clock.Now()

	metrics.SessionStepsTotal.WithLabelValues(from.Name(), string(reply.Kind)).Inc()
	m.logger.Debug("session step",
		zap.String("owner_id", ownerID),
		zap.String("from", from.Name()),
		zap.String("to", sess.step.Name()),
		zap.String("reply", string(reply.Kind)),
	)

	return reply
}

// Session returns a snapshot of ownerID's state, if any message was seen.
func (m *SessionManager) Session(ownerID string) (model.Session, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[ownerID]
	m.mu.Unlock()
	if !ok {
		return model.Session{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return model.Session{
		OwnerID:   ownerID,
		Step:      sess.step,
		StepName:  sess.step.Name(),
		UpdatedAt: sess.updatedAt,
	}, true
}

func (m *SessionManager) session(ownerID string) *userSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[ownerID]
	if !ok {
		sess = &userSession{step: model.Idle{}}
		m.sessions[ownerID] = sess
		metrics.SessionsTracked.Set(float64(len(m.sessions)))
	}
	return sess
}

func (m *SessionManager) begin(ctx context.Context, sess *userSession, ownerID string, cmd model.Command) *model.Reply {
	switch cmd {
	case model.CommandReserve:
		sess.step = model.AwaitingEquipment{}
		return &model.Reply{Kind: model.ReplyPromptEquipment, EquipmentCount: m.equipmentCount}

	case model.CommandCancel:
		sess.step = model.AwaitingCancelTarget{}
		return &model.Reply{
			Kind:         model.ReplyCancelPrompt,
			Reservations: m.reservations.ListForOwner(ctx, ownerID),
		}

	case model.CommandList:
		sess.step = model.Idle{}
		active, stored := m.reservations.ActiveSnapshot(ctx)
		return &model.Reply{
			Kind:         model.ReplyActiveList,
			Reservations: active,
			Stored:       stored,
		}

	default:
		sess.step = model.Idle{}
		return m.help()
	}
}

func (m *SessionManager) advance(ctx context.Context, sess *userSession, ownerID, text string) *model.Reply {
	switch step := sess.step.(type) {
	case model.AwaitingEquipment:
		n, ok := parseInt(text)
		if !ok || n < 1 || n > int64(m.equipmentCount) {
			return &model.Reply{Kind: model.ReplyEquipmentOutOfRange, EquipmentCount: m.equipmentCount}
		}
		sess.step = model.AwaitingStart{EquipmentID: int(n)}
		return &model.Reply{Kind: model.ReplyPromptStart, EquipmentID: int(n)}

	case model.AwaitingStart:
		start, err := m.parser.Parse(text)
		if err != nil {
			return &model.Reply{Kind: model.ReplyInvalidDateTime, EquipmentID: step.EquipmentID}
		}
		if start.Before(m.clock.Now()) {
			return &model.Reply{Kind: model.ReplyStartInPast, EquipmentID: step.EquipmentID}
		}
		sess.step = model.AwaitingEnd{EquipmentID: step.EquipmentID, Start: start}
		return &model.Reply{Kind: model.ReplyPromptEnd, EquipmentID: step.EquipmentID}

	case model.AwaitingEnd:
		end, err := m.parser.Parse(text)
		if err != nil {
			return &model.Reply{Kind: model.ReplyInvalidDateTime, EquipmentID: step.EquipmentID}
		}
		if !end.After(step.Start) {
			return &model.Reply{Kind: model.ReplyEndNotAfterStart, EquipmentID: step.EquipmentID}
		}

		sess.step = model.Idle{}
		r, err := m.reservations.Create(ctx, ownerID, step.EquipmentID, step.Start, end)
		if err != nil {
			return &model.Reply{
				Kind:         model.ReplyConflict,
				EquipmentID:  step.EquipmentID,
				Reservations: m.reservations.ScheduleFor(ctx, step.EquipmentID),
			}
		}
		return &model.Reply{Kind: model.ReplyReserved, EquipmentID: r.EquipmentID, Reservation: r}

	case model.AwaitingCancelTarget:
		sess.step = model.Idle{}
		id, ok := parseInt(text)
		if !ok {
			return &model.Reply{Kind: model.ReplyCancelNotFound}
		}
		r, err := m.reservations.Cancel(ctx, ownerID, id)
		if err != nil {
			return &model.Reply{Kind: model.ReplyCancelNotFound}
		}
		return &model.Reply{Kind: model.ReplyCancelled, EquipmentID: r.EquipmentID, Reservation: r}

	default:
		return m.help()
	}
}

func (m *SessionManager) help() *model.Reply {
	return &model.Reply{Kind: model.ReplyHelp, EquipmentCount: m.equipmentCount}
}

func parseInt(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
