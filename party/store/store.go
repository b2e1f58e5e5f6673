// Package store persists the party ledger and chat sessions with sqlx.
// Queries use ? placeholders and are rebound for the connected driver,
// so the same store serves postgres and sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/partybot/party"
)

var _ party.Repository = (*Store)(nil)

// Store implements party.Repository.
type Store struct {
	db *sqlx.DB
}

// New wraps an open, migrated database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type metaRow struct {
	PartyID string `db:"party_id"`
	Date    string `db:"date"`
	Place   string `db:"place"`
	Status  string `db:"status"`
}

type guestRow struct {
	GuestID   int64  `db:"guest_id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	BillSent  bool   `db:"bill_sent"`
	BillPaid  bool   `db:"bill_paid"`
}

type orderRow struct {
	GuestID int64  `db:"guest_id"`
	Item    string `db:"item"`
	Cost    int64  `db:"cost"`
}

// LoadParty returns nil when no party was saved yet.
func (s *Store) LoadParty(ctx context.Context) (*party.Party, error) {
	var meta metaRow
	err := s.db.GetContext(ctx, &meta, s.db.Rebind(
		"SELECT party_id, date, place, status FROM party_state WHERE id = 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select party: %w", err)
	}

	var guests []guestRow
	if err := s.db.SelectContext(ctx, &guests, s.db.Rebind(
		`SELECT guest_id, username, first_name, last_name, bill_sent, bill_paid
		 FROM guests WHERE party_id = ? ORDER BY position`), meta.PartyID); err != nil {
		return nil, fmt.Errorf("select guests: %w", err)
	}

	var orders []orderRow
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(
		`SELECT guest_id, item, cost FROM orders
		 WHERE party_id = ? ORDER BY guest_id, position`), meta.PartyID); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	byGuest := make(map[int64][]party.Order, len(guests))
	for _, o := range orders {
		byGuest[o.GuestID] = append(byGuest[o.GuestID], party.Order{Item: o.Item, Cost: o.Cost})
	}

	p := &party.Party{Meta: party.Meta{
		ID:     meta.PartyID,
		Date:   meta.Date,
		Place:  meta.Place,
		Status: party.Status(meta.Status),
	}}
	for _, g := range guests {
		p.Guests = append(p.Guests, party.Guest{
			Identity: party.Identity{
				ID:        g.GuestID,
				Username:  g.Username,
				FirstName: g.FirstName,
				LastName:  g.LastName,
			},
			BillSent: g.BillSent,
			BillPaid: g.BillPaid,
			Orders:   byGuest[g.GuestID],
		})
	}
	return p, nil
}

const upsertMeta = `INSERT INTO party_state (id, party_id, date, place, status, updated_at)
VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET
    party_id = excluded.party_id,
    date = excluded.date,
    place = excluded.place,
    status = excluded.status,
    updated_at = excluded.updated_at`

// SaveMeta stores the party metadata row.
func (s *Store) SaveMeta(ctx context.Context, meta party.Meta) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertMeta),
		meta.ID, meta.Date, meta.Place, string(meta.Status)); err != nil {
		return fmt.Errorf("upsert party: %w", err)
	}
	return nil
}

// InsertGuest adds a guest row at the given registration position.
func (s *Store) InsertGuest(ctx context.Context, partyID string, g party.Guest, position int) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO guests (party_id, guest_id, position, username, first_name, last_name, bill_sent, bill_paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		partyID, g.ID, position, g.Username, g.FirstName, g.LastName, g.BillSent, g.BillPaid)
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	return nil
}

// InsertOrder appends an order row for the guest.
func (s *Store) InsertOrder(ctx context.Context, partyID string, guestID int64, position int, o party.Order) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO orders (party_id, guest_id, position, item, cost) VALUES (?, ?, ?, ?, ?)`),
		partyID, guestID, position, o.Item, o.Cost)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateBill writes both bill flags of a guest.
func (s *Store) UpdateBill(ctx context.Context, partyID string, guestID int64, sent, paid bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE guests SET bill_sent = ?, bill_paid = ? WHERE party_id = ? AND guest_id = ?`),
		sent, paid, partyID, guestID)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update bill: %w: %d", party.ErrGuestNotFound, guestID)
	}
	return nil
}

// Reset drops every guest and order and stores meta as the current party.
func (s *Store) Reset(ctx context.Context, meta party.Meta) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{"DELETE FROM orders", "DELETE FROM guests"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("reset: %s: %w", q, err)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertMeta),
		meta.ID, meta.Date, meta.Place, string(meta.Status)); err != nil {
		return fmt.Errorf("reset: upsert party: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
