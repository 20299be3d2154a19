package model

const EventOrderUpdated = "ORDER_UPDATED"

// Event is the wire format pushed over the live channel and published to
// the order-events topic: one event per message, no envelope versioning.
type Event struct {
	Type  string `json:"type"`
	Order *Order `json:"order"`
}

func OrderUpdated(order *Order) Event {
	return Event{Type: EventOrderUpdated, Order: order}
}
