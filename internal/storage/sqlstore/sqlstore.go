// Package sqlstore implements the record operations shared by the SQL providers.
//
// All logical tables live in one physical "records" table keyed by
// (tbl, pk, sk). The ipk/isk columns carry the secondary index key when the
// logical table defines one. Bodies are stored as JSON.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/growthtrack/internal/storage"
)

var errNotLoaded = errors.New("storage not loaded, run 'growth init' first")

// Dialect adapts the shared queries to a database
type Dialect struct {
	Name string
	// Numbered rewrites ? placeholders to $1, $2, ...
	Numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite"}
	Postgres = Dialect{Name: "postgres", Numbered: true}
)

func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Records runs the storage.Provider record operations against db
type Records struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Records {
	return &Records{db: db, dialect: dialect}
}

func (r *Records) Get(ctx context.Context, t storage.Table, key storage.Key) (storage.Item, error) {
	if r == nil {
		return nil, errNotLoaded
	}

	var body []byte
	err := r.db.QueryRowContext(ctx,
		r.dialect.rebind("SELECT body FROM records WHERE tbl = ? AND pk = ? AND sk = ?"),
		t.Name, key.PK, key.SK,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s record: %w", t.Name, err)
	}
	return decode(body)
}

func (r *Records) Put(ctx context.Context, t storage.Table, item storage.Item) error {
	if r == nil {
		return errNotLoaded
	}

	key, err := t.Key(item)
	if err != nil {
		return err
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", t.Name, err)
	}

	var ipk, isk sql.NullString
	if ik, ok := t.IndexKey(item); ok {
		ipk = sql.NullString{String: ik.PK, Valid: true}
		isk = sql.NullString{String: ik.SK, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, r.dialect.rebind(`
		INSERT INTO records (tbl, pk, sk, ipk, isk, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tbl, pk, sk) DO UPDATE SET
			ipk = excluded.ipk,
			isk = excluded.isk,
			body = excluded.body,
			updated_at = excluded.updated_at`),
		t.Name, key.PK, key.SK, ipk, isk, string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s record: %w", t.Name, err)
	}
	return nil
}

func (r *Records) Delete(ctx context.Context, t storage.Table, key storage.Key) error {
	if r == nil {
		return errNotLoaded
	}

	_, err := r.db.ExecContext(ctx,
		r.dialect.rebind("DELETE FROM records WHERE tbl = ? AND pk = ? AND sk = ?"),
		t.Name, key.PK, key.SK,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", t.Name, err)
	}
	return nil
}

func (r *Records) DeleteBatch(ctx context.Context, t storage.Table, keys []storage.Key) error {
	if r == nil {
		return errNotLoaded
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind("DELETE FROM records WHERE tbl = ? AND pk = ? AND sk = ?"))
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, t.Name, key.PK, key.SK); err != nil {
			return fmt.Errorf("failed to delete %s record: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

func (r *Records) Query(ctx context.Context, t storage.Table, pk string, kr storage.KeyRange) ([]storage.Item, error) {
	return r.query(ctx, t.Name, "pk", "sk", pk, kr)
}

func (r *Records) QueryIndex(ctx context.Context, t storage.Table, pk string, kr storage.KeyRange) ([]storage.Item, error) {
	if t.Index == nil {
		return nil, fmt.Errorf("table %s has no secondary index", t.Name)
	}
	return r.query(ctx, t.Name, "ipk", "isk", pk, kr)
}

func (r *Records) query(ctx context.Context, table, pkCol, skCol, pk string, kr storage.KeyRange) ([]storage.Item, error) {
	if r == nil {
		return nil, errNotLoaded
	}

	query := "SELECT body FROM records WHERE tbl = ? AND " + pkCol + " = ?"
	args := []any{table, pk}
	if kr.Start != "" {
		query += " AND " + skCol + " >= ?"
		args = append(args, kr.Start)
	}
	if kr.End != "" {
		query += " AND " + skCol + " <= ?"
		args = append(args, kr.End)
	}
	query += " ORDER BY " + skCol + ", pk, sk"

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var items []storage.Item
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", table, err)
		}
		item, err := decode(body)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func decode(body []byte) (storage.Item, error) {
	var item storage.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return item, nil
}
