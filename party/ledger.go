package party

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/metrics"
)

// Repository persists ledger mutations. The ledger writes through it before
// changing its in-memory copy, so a failed write leaves the ledger untouched.
type Repository interface {
	// LoadParty returns the stored party or nil when nothing was saved yet.
	LoadParty(ctx context.Context) (*Party, error)
	SaveMeta(ctx context.Context, meta Meta) error
	InsertGuest(ctx context.Context, partyID string, guest Guest, position int) error
	InsertOrder(ctx context.Context, partyID string, guestID int64, position int, order Order) error
	UpdateBill(ctx context.Context, partyID string, guestID int64, sent, paid bool) error
	// Reset drops every guest and order and stores meta as the current party.
	Reset(ctx context.Context, meta Meta) error
}

// Ledger is the process-wide party state. All methods are safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	repo  Repository
	party Party
	index map[int64]int
}

// NewLedger loads the stored party or starts a new one from defaults.
// A nil repo keeps the ledger in memory only.
func NewLedger(ctx context.Context, repo Repository, defaults Meta) (*Ledger, error) {
	if repo == nil {
		repo = nopRepository{}
	}
	l := &Ledger{repo: repo, index: make(map[int64]int)}

	stored, err := repo.LoadParty(ctx)
	if err != nil {
		return nil, fmt.Errorf("load party: %w", err)
	}
	if stored != nil {
		l.party = *stored
		for i, g := range l.party.Guests {
			l.index[g.ID] = i
		}
		logger.Ledger.Info("party loaded",
			slog.String("event", "ledger.load"),
			slog.String("party_id", l.party.ID),
			slog.String("party_status", string(l.party.Status)),
			slog.Int("guests", len(l.party.Guests)),
		)
		return l, nil
	}

	meta := defaults
	meta.ID = uuid.NewString()
	meta.Status = StatusInProgress
	if err := repo.SaveMeta(ctx, meta); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}
	l.party = Party{Meta: meta}
	logger.Ledger.Info("party created",
		slog.String("event", "ledger.create"),
		slog.String("party_id", meta.ID),
	)
	return l, nil
}

// Register adds the guest on first contact. Later calls return the stored
// entry unchanged and created=false.
func (l *Ledger) Register(ctx context.Context, id Identity) (Guest, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.index[id.ID]; ok {
		return l.party.Guests[i].clone(), false, nil
	}
	guest := Guest{Identity: id}
	position := len(l.party.Guests)
	if err := l.repo.InsertGuest(ctx, l.party.ID, guest, position); err != nil {
		return Guest{}, false, fmt.Errorf("insert guest %d: %w", id.ID, err)
	}
	l.party.Guests = append(l.party.Guests, guest)
	l.index[id.ID] = position

	logger.Ledger.Info("guest registered",
		slog.String("event", "guest.register"),
		slog.Int64("guest_id", id.ID),
		slog.String("username", id.Username),
	)
	return guest.clone(), true, nil
}

// AddOrder appends a confirmed order to the guest's list.
func (l *Ledger) AddOrder(ctx context.Context, guestID int64, order Order) (Guest, error) {
	if order.Cost < 0 {
		return Guest{}, ErrInvalidCost
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.party.Status == StatusClosed {
		return Guest{}, ErrPartyClosed
	}
	g, err := l.guestLocked(guestID)
	if err != nil {
		return Guest{}, err
	}
	if err := l.repo.InsertOrder(ctx, l.party.ID, guestID, len(g.Orders), order); err != nil {
		return Guest{}, fmt.Errorf("insert order for guest %d: %w", guestID, err)
	}
	g.Orders = append(g.Orders, order)
	metrics.Orders.Inc()

	logger.Ledger.Info("order committed",
		slog.String("event", "order.commit"),
		slog.Int64("guest_id", guestID),
		slog.String("item", logger.SanitizeLimit(order.Item, 128)),
		slog.Int64("cost", order.Cost),
		slog.Int64("subtotal", g.Subtotal()),
	)
	return g.clone(), nil
}

// Guest returns a copy of the guest entry.
func (l *Ledger) Guest(guestID int64) (Guest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, err := l.guestLocked(guestID)
	if err != nil {
		return Guest{}, err
	}
	return g.clone(), nil
}

// Total lists every guest in registration order with the grand total.
func (l *Ledger) Total() Summary {
	return l.summary(func(Guest) bool { return true })
}

// Debtors lists guests whose bill is not paid and the sum of their subtotals.
func (l *Ledger) Debtors() Summary {
	return l.summary(func(g Guest) bool { return !g.BillPaid })
}

// Unpaid returns the guests whose bill is not paid, in registration order.
func (l *Ledger) Unpaid() []Guest {
	return l.Debtors().Guests
}

func (l *Ledger) summary(keep func(Guest) bool) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s Summary
	for _, g := range l.party.Guests {
		if !keep(g) {
			continue
		}
		s.Guests = append(s.Guests, g.clone())
		s.Total += g.Subtotal()
	}
	return s
}

// MarkBillSent sets bill_sent for the guest. It is written every time a bill goes out.
func (l *Ledger) MarkBillSent(ctx context.Context, guestID int64) (Guest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, err := l.guestLocked(guestID)
	if err != nil {
		return Guest{}, err
	}
	if err := l.repo.UpdateBill(ctx, l.party.ID, guestID, true, g.BillPaid); err != nil {
		return Guest{}, fmt.Errorf("mark bill sent for guest %d: %w", guestID, err)
	}
	g.BillSent = true
	metrics.BillsSent.Inc()
	return g.clone(), nil
}

// MarkPaid sets bill_paid. It does not touch bill_sent: a guest may be marked
// paid without ever receiving a bill. changed is false when already paid.
func (l *Ledger) MarkPaid(ctx context.Context, guestID int64) (Guest, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.guestLocked(guestID)
	if err != nil {
		return Guest{}, false, err
	}
	if entry.BillPaid {
		return entry.clone(), false, nil
	}
	if err := l.repo.UpdateBill(ctx, l.party.ID, guestID, entry.BillSent, true); err != nil {
		return Guest{}, false, fmt.Errorf("mark paid for guest %d: %w", guestID, err)
	}
	entry.BillPaid = true
	metrics.BillsPaid.Inc()

	logger.Ledger.Info("bill paid",
		slog.String("event", "bill.paid"),
		slog.Int64("guest_id", guestID),
		slog.Int64("subtotal", entry.Subtotal()),
	)
	return entry.clone(), true, nil
}

// Close stops accepting orders. changed is false when already closed.
func (l *Ledger) Close(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.party.Status == StatusClosed {
		return false, nil
	}
	meta := l.party.Meta
	meta.Status = StatusClosed
	if err := l.repo.SaveMeta(ctx, meta); err != nil {
		return false, fmt.Errorf("close party: %w", err)
	}
	l.party.Meta = meta
	logger.Ledger.Info("party closed",
		slog.String("event", "party.close"),
		slog.String("party_id", meta.ID),
	)
	return true, nil
}

// Reopen starts a new party: status in_progress, every guest discarded,
// date and place kept.
func (l *Ledger) Reopen(ctx context.Context) (Meta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	meta := l.party.Meta
	meta.ID = uuid.NewString()
	meta.Status = StatusInProgress
	if err := l.repo.Reset(ctx, meta); err != nil {
		return Meta{}, fmt.Errorf("reset party: %w", err)
	}
	dropped := len(l.party.Guests)
	l.party = Party{Meta: meta}
	l.index = make(map[int64]int)

	logger.Ledger.Info("party restarted",
		slog.String("event", "party.reset"),
		slog.String("party_id", meta.ID),
		slog.Int("guests", dropped),
	)
	return meta, nil
}

// SetDate replaces the display date.
func (l *Ledger) SetDate(ctx context.Context, date string) error {
	return l.updateMeta(ctx, func(m *Meta) { m.Date = date })
}

// SetPlace replaces the display place.
func (l *Ledger) SetPlace(ctx context.Context, place string) error {
	return l.updateMeta(ctx, func(m *Meta) { m.Place = place })
}

func (l *Ledger) updateMeta(ctx context.Context, apply func(*Meta)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	meta := l.party.Meta
	apply(&meta)
	if err := l.repo.SaveMeta(ctx, meta); err != nil {
		return fmt.Errorf("save party: %w", err)
	}
	l.party.Meta = meta
	return nil
}

// Info returns the party metadata snapshot.
func (l *Ledger) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Info{Meta: l.party.Meta, Guests: len(l.party.Guests)}
}

func (l *Ledger) guestLocked(guestID int64) (*Guest, error) {
	i, ok := l.index[guestID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGuestNotFound, guestID)
	}
	return &l.party.Guests[i], nil
}

type nopRepository struct{}

func (nopRepository) LoadParty(context.Context) (*Party, error) { return nil, nil }
func (nopRepository) SaveMeta(context.Context, Meta) error { return nil }
func (nopRepository) InsertGuest(context.Context, string, Guest, int) error { return nil }
func (nopRepository) InsertOrder(context.Context, string, int64, int, Order) error { return nil }
func (nopRepository) UpdateBill(context.Context, string, int64, bool, bool) error { return nil }
func (nopRepository) Reset(context.Context, Meta) error { return nil }
