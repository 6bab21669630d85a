package model

// ReplyKind identifies the outcome of one conversation step.
type ReplyKind string

const (
	ReplyPromptEquipment     ReplyKind = "prompt_equipment"
	ReplyEquipmentOutOfRange ReplyKind = "equipment_out_of_range"
	ReplyPromptStart         ReplyKind = "prompt_start"
	ReplyInvalidDateTime     ReplyKind = "invalid_datetime"
	ReplyStartInPast         ReplyKind = "start_in_past"
	ReplyPromptEnd           ReplyKind = "prompt_end"
	ReplyEndNotAfterStart    ReplyKind = "end_not_after_start"
	ReplyReserved            ReplyKind = "reserved"
	ReplyConflict            ReplyKind = "conflict"
	ReplyCancelPrompt        ReplyKind = "cancel_prompt"
	ReplyCancelled           ReplyKind = "cancelled"
	ReplyCancelNotFound      ReplyKind = "cancel_not_found"
	ReplyActiveList          ReplyKind = "active_list"
	ReplyHelp                ReplyKind = "help"
)

// Reply is the structured result of a step, rendered to text by a formatter.
type Reply struct {
	Kind           ReplyKind
	EquipmentID    int
	EquipmentCount int

	// Reservation is set for ReplyReserved and ReplyCancelled.
	Reservation *Reservation

	// Reservations is the owner's list for ReplyCancelPrompt, the equipment
	// schedule for ReplyConflict and all active reservations for ReplyActiveList.
	Reservations []Reservation

	// Stored is the total number of reservations held, set for ReplyActiveList.
	Stored int
}
