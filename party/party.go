// Package party holds the shared party ledger: guests, their confirmed orders
// and bill flags, plus the party metadata the admin manages.
package party

// Status is the party lifecycle state.
type Status string

const (
	// StatusInProgress accepts new orders.
	StatusInProgress Status = "in_progress"
	// StatusClosed rejects new orders until the party is restarted.
	StatusClosed Status = "closed"
)

// Identity describes a Telegram user. Any of the name fields may be empty.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName renders the identity for admin-facing texts.
func (i Identity) DisplayName() string {
	return DisplayName(i.Username, i.FirstName, i.LastName)
}

// Order is one confirmed item with its cost.
type Order struct {
	Item string
	Cost int64
}

// Guest is a ledger entry. Guests are only removed by a party reset.
type Guest struct {
	Identity
	BillSent bool
	BillPaid bool
	Orders   []Order
}

// Subtotal is the sum of the guest's order costs.
func (g Guest) Subtotal() int64 {
	var sum int64
	for _, o := range g.Orders {
		sum += o.Cost
	}
	return sum
}

func (g Guest) clone() Guest {
	g.Orders = append([]Order(nil), g.Orders...)
	return g
}

// Meta is the party metadata persisted alongside the guest list.
type Meta struct {
	ID     string
	Date   string
	Place  string
	Status Status
}

// Party is the full ledger snapshot with guests in registration order.
type Party struct {
	Meta
	Guests []Guest
}

// Info is the read-only view returned to the admin.
type Info struct {
	Meta
	Guests int
}

// Summary lists guests with the sum of their subtotals.
type Summary struct {
	Guests []Guest
	Total  int64
}
