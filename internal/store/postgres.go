package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rotisserie/eris"

	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

// Store is the PostgreSQL wishlist.Store. The resolved record is kept whole
// in a JSONB column; the lookup keys are mirrored into plain columns.
type Store struct{ DB *sql.DB }

var _ wishlist.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wishlist_items (
			id          BIGSERIAL PRIMARY KEY,
			url         TEXT NOT NULL,
			listing_id  TEXT NOT NULL DEFAULT '',
			complex_id  TEXT NOT NULL DEFAULT '',
			name        TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			property    JSONB NOT NULL,
			added_by    TEXT NOT NULL,
			memo        TEXT NOT NULL DEFAULT '',
			added_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_wishlist_url ON wishlist_items(url);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_wishlist_listing ON wishlist_items(listing_id) WHERE listing_id <> '';`,
		`CREATE INDEX IF NOT EXISTS idx_wishlist_status ON wishlist_items(status);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return eris.Wrap(err, "migrate wishlist_items")
		}
	}
	return nil
}

const selectItem = `SELECT id, url, status, property, added_by, memo, added_at, updated_at FROM wishlist_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (wishlist.Item, error) {
	var (
		it  wishlist.Item
		url string
		raw []byte
	)
	if err := row.Scan(&it.ID, &url, &it.Status, &raw, &it.AddedBy, &it.Memo, &it.AddedAt, &it.UpdatedAt); err != nil {
		return it, err
	}
	var p resolver.Property
	if err := json.Unmarshal(raw, &p); err != nil {
		return it, eris.Wrapf(err, "decode property of item %d", it.ID)
	}
	p.SourceURL = url
	it.Property = p
	return it, nil
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*wishlist.Item, error) {
	it, err := scanItem(s.DB.QueryRowContext(ctx, selectItem+` WHERE `+where+` LIMIT 1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "select wishlist item")
	}
	return &it, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*wishlist.Item, error) {
	return s.findOne(ctx, `id=$1`, id)
}

func (s *Store) FindByURL(ctx context.Context, url string) (*wishlist.Item, error) {
	return s.findOne(ctx, `url=$1`, url)
}

func (s *Store) FindByListingID(ctx context.Context, listingID string) (*wishlist.Item, error) {
	if listingID == "" {
		return nil, nil
	}
	return s.findOne(ctx, `listing_id=$1`, listingID)
}

func (s *Store) Insert(ctx context.Context, it *wishlist.Item) error {
	raw, err := json.Marshal(it.Property)
	if err != nil {
		return eris.Wrap(err, "encode property")
	}
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO wishlist_items (url, listing_id, complex_id, name, status, property, added_by, memo, added_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		it.SourceURL, it.ListingID, it.ComplexID, it.Name, string(it.Status), string(raw), it.AddedBy, it.Memo, it.AddedAt, it.UpdatedAt,
	).Scan(&it.ID)
	if isUniqueViolation(err) {
		return eris.Wrapf(wishlist.ErrDuplicate, "insert %s", it.SourceURL)
	}
	if err != nil {
		return eris.Wrap(err, "insert wishlist item")
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) Update(ctx context.Context, it wishlist.Item) error {
	raw, err := json.Marshal(it.Property)
	if err != nil {
		return eris.Wrap(err, "encode property")
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE wishlist_items
		SET listing_id=$2, complex_id=$3, name=$4, status=$5, property=$6, memo=$7, updated_at=$8
		WHERE id=$1`,
		it.ID, it.ListingID, it.ComplexID, it.Name, string(it.Status), string(raw), it.Memo, it.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "update item %d", it.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(wishlist.ErrNotFound, "update item %d", it.ID)
	}
	return nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]wishlist.Item, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query wishlist items")
	}
	defer rows.Close()
	var out []wishlist.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan wishlist item")
		}
		out = append(out, it)
	}
	return out, eris.Wrap(rows.Err(), "iterate wishlist items")
}

func (s *Store) List(ctx context.Context) ([]wishlist.Item, error) {
	return s.query(ctx, selectItem+` ORDER BY id`)
}

func (s *Store) ListByStatus(ctx context.Context, status wishlist.Status, limit int) ([]wishlist.Item, error) {
	if limit <= 0 {
		return s.query(ctx, selectItem+` WHERE status=$1 ORDER BY id`, string(status))
	}
	return s.query(ctx, selectItem+` WHERE status=$1 ORDER BY id LIMIT $2`, string(status), limit)
}

func (s *Store) Delete(ctx context.Context, id int64) (wishlist.Item, error) {
	it, err := scanItem(s.DB.QueryRowContext(ctx, `
		DELETE FROM wishlist_items WHERE id=$1
		RETURNING id, url, status, property, added_by, memo, added_at, updated_at`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return wishlist.Item{}, eris.Wrapf(wishlist.ErrNotFound, "delete item %d", id)
	}
	if err != nil {
		return wishlist.Item{}, eris.Wrapf(err, "delete item %d", id)
	}
	return it, nil
}

func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM wishlist_items`)
	if err != nil {
		return 0, eris.Wrap(err, "clear wishlist")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT count(*) FROM wishlist_items`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "count wishlist")
	}
	return n, nil
}
