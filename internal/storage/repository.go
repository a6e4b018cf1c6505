package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a card or transaction does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a card name is already taken.
	ErrDuplicate = errors.New("duplicate")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateCard inserts a card and returns it with its ID.
func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	res, err := r.db.ExecContext(ctx, insertCard, c.Name, c.ClosingDay, c.DueDay)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Card{}, fmt.Errorf("create card %q: %w", c.Name, ErrDuplicate)
		}
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Card{}, fmt.Errorf("card id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Card saved to SQLite",
		"id", c.ID,
		"name", c.Name,
		"closing_day", c.ClosingDay,
		"due_day", c.DueDay)

	return c, nil
}

// UpsertCardByName inserts the card or updates the days of the card with the same name.
func (r *SQLiteRepository) UpsertCardByName(ctx context.Context, c core.Card) (core.Card, error) {
	row := r.db.QueryRowContext(ctx, upsertCard, c.Name, c.ClosingDay, c.DueDay)
	if err := row.Scan(&c.ID); err != nil {
		return core.Card{}, fmt.Errorf("upsert card %q: %w", c.Name, err)
	}
	return c, nil
}

// UpdateCard replaces the name and days of an existing card. Transactions
// already stored keep the dates they were given.
func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	res, err := r.db.ExecContext(ctx, updateCard, c.Name, c.ClosingDay, c.DueDay, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Card{}, fmt.Errorf("update card %q: %w", c.Name, ErrDuplicate)
		}
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Card{}, fmt.Errorf("update card rows: %w", err)
	}
	if n == 0 {
		return core.Card{}, fmt.Errorf("card %d: %w", c.ID, ErrNotFound)
	}

	slog.InfoContext(ctx, "Card updated",
		"id", c.ID,
		"closing_day", c.ClosingDay,
		"due_day", c.DueDay)

	return c, nil
}

// GetCard retrieves a single card by ID
func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.Card, error) {
	var c core.Card
	err := r.db.QueryRowContext(ctx, selectCard, id).Scan(&c.ID, &c.Name, &c.ClosingDay, &c.DueDay)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card by id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx, selectCards)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.ClosingDay, &c.DueDay); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// InsertTransactions stores all rows atomically and returns them with IDs set.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		res, err := stmt.ExecContext(ctx,
			t.Description,
			t.Amount.Cents,
			t.DueDate.String(),
			t.IsPaid,
			nullableID(t.CardID),
			t.GroupID,
			t.InstallmentNumber,
			t.InstallmentCount,
		)
		if err != nil {
			return nil, fmt.Errorf("insert transaction %d of %d: %w", i+1, len(txs), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("transaction id: %w", err)
		}
		t.ID = id
		out[i] = t
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite",
		"count", len(out),
		"group_id", out[0].GroupID,
		"first_due_date", out[0].DueDate.String())

	return out, nil
}

// GetTransaction retrieves a single transaction by ID
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, selectTransaction, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListTransactionsBetween returns transactions due in [from, to], ordered by date.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, selectTransactionsBetween, from.String(), to.String())
}

// ListCardTransactionsBetween is ListTransactionsBetween restricted to one card.
func (r *SQLiteRepository) ListCardTransactionsBetween(ctx context.Context, cardID int64, from, to core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, selectCardTransactionsBetween, cardID, from.String(), to.String())
}

// ListUnpaid returns every unpaid transaction due on or before through.
func (r *SQLiteRepository) ListUnpaid(ctx context.Context, through core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, selectUnpaidThrough, through.String())
}

// ListGroup returns the rows of an installment plan or recurrence series,
// or ErrNotFound when no row carries groupID.
func (r *SQLiteRepository) ListGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := r.queryTransactions(ctx, selectGroup, groupID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("group %q: %w", groupID, ErrNotFound)
	}
	return rows, nil
}

// SetPaid updates the paid flag of a transaction.
func (r *SQLiteRepository) SetPaid(ctx context.Context, id int64, paid bool) error {
	res, err := r.db.ExecContext(ctx, updatePaid, paid, id)
	if err != nil {
		return fmt.Errorf("set paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set paid rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction paid flag updated", "id", id, "paid", paid)
	return nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		dueDate string
		cardID  sql.NullInt64
	)
	err := row.Scan(
		&t.ID,
		&t.Description,
		&t.Amount.Cents,
		&dueDate,
		&t.IsPaid,
		&cardID,
		&t.GroupID,
		&t.InstallmentNumber,
		&t.InstallmentCount,
	)
	if err != nil {
		return core.Transaction{}, err
	}
	t.DueDate, err = core.ParseDate(dueDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored due date of transaction %d: %w", t.ID, err)
	}
	if cardID.Valid {
		id := cardID.Int64
		t.CardID = &id
	}
	return t, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
