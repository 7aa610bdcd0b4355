package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/greenspace-sync/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// workItemRow is the flattened form of a model.WorkItem.
type workItemRow struct {
	ID              string         `db:"id"`
	OwnerID         string         `db:"owner_id"`
	Title           string         `db:"title"`
	CustomerName    string         `db:"customer_name"`
	Address         string         `db:"address"`
	Status          string         `db:"status"`
	AppointmentDate sql.NullString `db:"appointment_date"`
	AppointmentTime sql.NullString `db:"appointment_time"`
	OrderID         sql.NullString `db:"order_id"`
	OrderStatus     sql.NullString `db:"order_status"`
	OrderCode       sql.NullString `db:"order_code"`
	ModifiedAt      sql.NullTime   `db:"modified_at"`
	CreatedAt       sql.NullTime   `db:"created_at"`
	FetchedAt       time.Time      `db:"fetched_at"`
}

func toRow(ownerID string, w model.WorkItem, fetchedAt time.Time) workItemRow {
	row := workItemRow{
		ID:           w.ID,
		OwnerID:      ownerID,
		Title:        w.Title,
		CustomerName: w.CustomerName,
		Address:      w.Address,
		Status:       w.Status,
		ModifiedAt:   nullTime(w.ModifiedAt),
		CreatedAt:    nullTime(w.CreatedAt),
		FetchedAt:    fetchedAt.UTC(),
	}
	if !w.Appointment.IsZero() {
		row.AppointmentDate = nullString(w.Appointment.Date)
		row.AppointmentTime = nullString(w.Appointment.Time)
	}
	if o := w.RelatedOrder; o != nil {
		row.OrderID = nullString(o.ID)
		row.OrderStatus = nullString(o.Status)
		row.OrderCode = nullString(o.Code)
	}
	return row
}

func (r workItemRow) toModel() model.WorkItem {
	w := model.WorkItem{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		CustomerName: r.CustomerName,
		Address:      r.Address,
		Status:       r.Status,
	}
	if r.ModifiedAt.Valid {
		w.ModifiedAt = r.ModifiedAt.Time
	}
	if r.CreatedAt.Valid {
		w.CreatedAt = r.CreatedAt.Time
	}
	if r.AppointmentDate.Valid {
		w.Appointment = &model.Appointment{
			Date: r.AppointmentDate.String,
			Time: r.AppointmentTime.String,
		}
	}
	if r.OrderID.Valid {
		w.RelatedOrder = &model.OrderRef{
			ID:     r.OrderID.String,
			Status: r.OrderStatus.String,
			Code:   r.OrderCode.String,
		}
	}
	return w
}

// ReplaceWorkItems swaps the cached items of ownerID in one transaction.
func (s *SQLiteStore) ReplaceWorkItems(
	ctx context.Context,
	ownerID string,
	items []model.WorkItem,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM work_items WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("clearing work items for %s: %w", ownerID, err)
	}

	const query = `
		INSERT OR REPLACE INTO work_items (
			id, owner_id, title, customer_name, address, status,
			appointment_date, appointment_time,
			order_id, order_status, order_code,
			modified_at, created_at, fetched_at
		) VALUES (
			:id, :owner_id, :title, :customer_name, :address, :status,
			:appointment_date, :appointment_time,
			:order_id, :order_status, :order_code,
			:modified_at, :created_at, :fetched_at
		)`

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	fetchedAt := s.now()
	for _, w := range items {
		if _, err := stmt.ExecContext(ctx, toRow(ownerID, w, fetchedAt)); err != nil {
			return fmt.Errorf("inserting work item %s: %w", w.ID, err)
		}
	}

	return tx.Commit()
}

// GetWorkItems returns cached items matching filter, most recently changed
// first.
func (s *SQLiteStore) GetWorkItems(
	ctx context.Context,
	filter WorkItemFilter,
) ([]model.WorkItem, error) {
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	query := "SELECT * FROM work_items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(modified_at, created_at) DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []workItemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying work items: %w", err)
	}

	items := make([]model.WorkItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toModel())
	}
	return items, nil
}

// GetWorkItem returns a single cached item.
func (s *SQLiteStore) GetWorkItem(ctx context.Context, id string) (model.WorkItem, error) {
	var row workItemRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM work_items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WorkItem{}, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("getting work item %s: %w", id, err)
	}
	return row.toModel(), nil
}

// ReplaceNotifications swaps the cached notifications of userID. Rows
// without an id are given one.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	userID string,
	notes []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing notifications for %s: %w", userID, err)
	}

	const query = `
		INSERT OR REPLACE INTO notifications (id, user_id, title, content, is_seen, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, n := range notes {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		createdAt := n.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		_, err := tx.ExecContext(ctx, query,
			n.ID, userID, n.Title, n.Content, boolToInt(n.IsSeen), createdAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications returns cached notifications for userID, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	userID string,
	unseenOnly bool,
) ([]model.Notification, error) {
	query := "SELECT id, user_id, title, content, is_seen, created_at FROM notifications WHERE user_id = ?"
	if unseenOnly {
		query += " AND is_seen = 0"
	}
	query += " ORDER BY created_at DESC"

	var notes []model.Notification
	if err := s.db.SelectContext(ctx, &notes, query, userID); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	return notes, nil
}

// MarkNotificationSeen flags a cached notification as read.
func (s *SQLiteStore) MarkNotificationSeen(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE notifications SET is_seen = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %s seen: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking notification %s seen: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
