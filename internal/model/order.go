package model

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusShopping   Status = "shopping"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusPaid       Status = "paid"
)

// nextStatus is the single source of truth for the order lifecycle.
// The path is linear: no branching, no skipping, no backward moves.
var nextStatus = map[Status]Status{
	StatusPending:    StatusAccepted,
	StatusAccepted:   StatusShopping,
	StatusShopping:   StatusDelivering,
	StatusDelivering: StatusCompleted,
	StatusCompleted:  StatusPaid,
}

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusAccepted:   1,
	StatusShopping:   2,
	StatusDelivering: 3,
	StatusCompleted:  4,
	StatusPaid:       5,
}

// Next returns the unique legal successor of s. ok is false for the
// terminal state and for unknown values.
func (s Status) Next() (Status, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AtLeast reports whether s is at or past other on the lifecycle path.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

type OrderItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Purchased bool    `json:"purchased"`
}

// ItemsTotal is the derived order total: sum of price x quantity.
func ItemsTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type Order struct {
	ID                  int64       `json:"id"`
	CustomerID          int64       `json:"customerId"`
	ShopperID           *int64      `json:"shopperId"`
	Status              Status      `json:"status"`
	Items               []OrderItem `json:"items"`
	Notes               string      `json:"notes,omitempty"`
	Total               float64     `json:"total"`
	ServiceFee          float64     `json:"serviceFee"`
	IsPaid              bool        `json:"isPaid"`
	ShopperLocation     *Location   `json:"shopperLocation,omitempty"`
	EstimatedDeliveryAt *time.Time  `json:"estimatedDeliveryTime,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`

	// DisplayOrderNumber is a per-viewer label assigned at query time,
	// never persisted. Zero means "not assigned for this read".
	DisplayOrderNumber int `json:"displayOrderNumber,omitempty"`
}

// AssignDisplayNumbers labels orders fetched newest-first so the oldest
// order gets 1 and the newest gets len(orders).
func AssignDisplayNumbers(orders []Order) {
	n := len(orders)
	for i := range orders {
		orders[i].DisplayOrderNumber = n - i
	}
}
