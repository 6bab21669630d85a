package model

// SendMessageRequest is a chat message posted to the JSON API.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessageResponse carries the single reply to a chat message.
type SendMessageResponse struct {
	Reply string `json:"reply"`
}

// CancelReservationResponse is returned after a successful cancellation.
type CancelReservationResponse struct {
	Reservation Reservation `json:"reservation"`
}

// InboundMessage is one text message handed to the dispatcher by a transport.
type InboundMessage struct {
	Transport string
	OwnerID   string
	Text      string
}
