package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"marketplacego/internal/domain"
)

// SnapshotStore mirrors listing state into Postgres. The in-memory store is
// authoritative while the process runs; snapshots make listings and the bid
// history survive restarts and feed reporting queries.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore { return &SnapshotStore{db: db} }

// Save upserts a listing snapshot. A stale snapshot (older version) never
// overwrites a newer one.
func (s *SnapshotStore) Save(ctx context.Context, l *domain.Listing) error {
	payload, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("snapshot: marshal listing %s: %w", l.ID, err)
	}

	const upsert = `
	  INSERT INTO listings (id, seller_id, title, listing_type, status, version, payload, updated_at)
	       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	  ON CONFLICT (id) DO UPDATE
	        SET status     = EXCLUDED.status,
	            version    = EXCLUDED.version,
	            payload    = EXCLUDED.payload,
	            updated_at = EXCLUDED.updated_at
	      WHERE listings.version < EXCLUDED.version`

	if _, err := s.db.ExecContext(ctx, upsert,
		l.ID, l.SellerID, l.Title, l.ListingType, l.Status, l.Version, payload, l.UpdatedAt,
	); err != nil {
		return fmt.Errorf("snapshot: upsert listing %s: %w", l.ID, err)
	}
	return nil
}

// LoadAll restores every snapshotted listing, used to warm the in-memory
// store at boot.
func (s *SnapshotStore) LoadAll(ctx context.Context) ([]*domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM listings`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load listings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Listing
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		l := &domain.Listing{}
		if err := json.Unmarshal(payload, l); err != nil {
			return nil, fmt.Errorf("snapshot: decode listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// InsertBid journals an accepted bid. Replays are deduplicated on bid id.
func (s *SnapshotStore) InsertBid(ctx context.Context, listingID string, b domain.Bid) error {
	const ins = `
	  INSERT INTO bids (id, listing_id, bidder_id, amount, is_buy_now, placed_at)
	      VALUES ($1, $2, $3, $4, $5, $6)
	  ON CONFLICT (id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, ins,
		b.ID, listingID, b.Bidder, b.Amount, b.IsBuyNow, b.Timestamp,
	); err != nil {
		return fmt.Errorf("snapshot: insert bid %s: %w", b.ID, err)
	}
	return nil
}
