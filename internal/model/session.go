package model

import (
	"time"
)

// Command is a recognized top-level chat command.
type Command string

const (
	CommandNone    Command = ""
	CommandReserve Command = "reserve"
	CommandCancel  Command = "cancel"
	CommandList    Command = "list"
	CommandHelp    Command = "help"
)

// Step is the state of one user's conversation. The set of implementations is
// closed; each carries only the draft fields collected so far.
type Step interface {
	Name() string
	isStep()
}

// Idle means no flow is in progress.
type Idle struct{}

// AwaitingEquipment waits for an equipment number.
type AwaitingEquipment struct{}

// AwaitingStart waits for the start time of a reservation on EquipmentID.
type AwaitingStart struct {
	EquipmentID int
}

// AwaitingEnd waits for the end time; Start is already validated.
type AwaitingEnd struct {
	EquipmentID int
	Start       time.Time
}

// AwaitingCancelTarget waits for the id of the reservation to cancel.
type AwaitingCancelTarget struct{}

func (Idle) Name() string                 { return "idle" }
func (AwaitingEquipment) Name() string    { return "awaiting_equipment" }
func (AwaitingStart) Name() string        { return "awaiting_start" }
func (AwaitingEnd) Name() string          { return "awaiting_end" }
func (AwaitingCancelTarget) Name() string { return "awaiting_cancel_target" }

func (Idle) isStep()                 {}
func (AwaitingEquipment) isStep()    {}
func (AwaitingStart) isStep()        {}
func (AwaitingEnd) isStep()          {}
func (AwaitingCancelTarget) isStep() {}

// Session is a snapshot of one user's conversation state.
type Session struct {
	OwnerID   string    `json:"owner_id"`
	Step      Step      `json:"-"`
	StepName  string    `json:"step"`
	UpdatedAt time.Time `json:"updated_at"`
}
