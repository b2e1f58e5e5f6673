// Package conversation implements the per-guest order dialog:
// item, then cost, then a yes/no confirmation.
package conversation

import "fmt"

// Kind names a session state. It is the value persisted for a chat.
type Kind string

const (
	// KindAwaitingItem waits for the name of the next item.
	KindAwaitingItem Kind = "awaiting_item"
	// KindAwaitingCost waits for the cost of the pending item.
	KindAwaitingCost Kind = "awaiting_cost"
	// KindAwaitingConfirmation waits for "Да" or "Нет" on the pending order.
	KindAwaitingConfirmation Kind = "awaiting_confirmation"
	// KindAdminMenu is the organizer's menu session.
	KindAdminMenu Kind = "admin_menu"
)

// State is one step of a chat session. Scratch data lives in the variant.
type State interface {
	Kind() Kind
}

// AwaitingItem waits for the name of the next order.
type AwaitingItem struct{}

// AwaitingCost holds the item until a valid cost arrives.
type AwaitingCost struct {
	Item string
}

// AwaitingConfirmation holds the pending order until "Да" or "Нет".
type AwaitingConfirmation struct {
	Item string
	Cost int64
}

// AdminMenu is the admin's keyboard session.
type AdminMenu struct{}

func (AwaitingItem) Kind() Kind         { return KindAwaitingItem }
func (AwaitingCost) Kind() Kind         { return KindAwaitingCost }
func (AwaitingConfirmation) Kind() Kind { return KindAwaitingConfirmation }
func (AdminMenu) Kind() Kind            { return KindAdminMenu }

// Record is the flat form of a State used by session storage.
type Record struct {
	State Kind   `db:"state"`
	Item  string `db:"item"`
	Cost  int64  `db:"cost"`
}

// Encode flattens a state for storage.
func Encode(s State) Record {
	switch v := s.(type) {
	case AwaitingCost:
		return Record{State: KindAwaitingCost, Item: v.Item}
	case AwaitingConfirmation:
		return Record{State: KindAwaitingConfirmation, Item: v.Item, Cost: v.Cost}
	default:
		return Record{State: s.Kind()}
	}
}

// Decode restores a state written by Encode.
func Decode(r Record) (State, error) {
	switch r.State {
	case KindAwaitingItem:
		return AwaitingItem{}, nil
	case KindAwaitingCost:
		return AwaitingCost{Item: r.Item}, nil
	case KindAwaitingConfirmation:
		return AwaitingConfirmation{Item: r.Item, Cost: r.Cost}, nil
	case KindAdminMenu:
		return AdminMenu{}, nil
	}
	return nil, fmt.Errorf("conversation: unknown state %q", r.State)
}
