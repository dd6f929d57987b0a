package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/retry"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrInvalidFamily is returned when a family cannot be saved as given.
var ErrInvalidFamily = errors.New("invalid family")

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLocation sets the time zone due dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLiteStore) { s.loc = loc }
}

// WithClock replaces time.Now for message timestamps and cleanup.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string, opts ...Option) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS families (
		family_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		member_id TEXT PRIMARY KEY,
		family_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		is_admin INTEGER DEFAULT 0,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_members_family ON members(family_id, position);

	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		family_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		points INTEGER NOT NULL,
		due_date TEXT,
		status TEXT NOT NULL,
		assignee_id TEXT,
		is_bonus INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_family_status ON tasks(family_id, status);

	CREATE TABLE IF NOT EXISTS completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		family_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		title TEXT NOT NULL,
		member_id TEXT NOT NULL,
		points INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completions_family ON completions(family_id, completed_at);

	CREATE TABLE IF NOT EXISTS points_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		family_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		points INTEGER NOT NULL,
		reason TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_points_family ON points_ledger(family_id);

	CREATE TABLE IF NOT EXISTS conversation_messages (
		message_id TEXT PRIMARY KEY,
		family_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON conversation_messages(family_id, session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON conversation_messages(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// LoadFamilyContext builds a read-only snapshot of a family.
func (s *SQLiteStore) LoadFamilyContext(ctx context.Context, familyID string, since time.Time) (*domain.FamilyContext, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT family_id FROM families WHERE family_id = ?`, familyID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan family row: %w", err)
	}

	fc := &domain.FamilyContext{FamilyID: id}
	if fc.Members, err = s.loadMembers(ctx, familyID); err != nil {
		return nil, err
	}
	if fc.ActiveTasks, err = s.loadActiveTasks(ctx, familyID); err != nil {
		return nil, err
	}
	if fc.CompletionHistory, err = s.loadCompletions(ctx, familyID, since); err != nil {
		return nil, err
	}
	if fc.PointsData, err = s.loadPoints(ctx, familyID); err != nil {
		return nil, err
	}
	return fc, nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, familyID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, name, role, is_admin
		FROM members WHERE family_id = ? ORDER BY position`, familyID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer closeRows(rows, "members")

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &role, &m.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		m.Role = domain.Role(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// Pending tasks and tasks completed but not yet verified are both active.
func (s *SQLiteStore) loadActiveTasks(ctx context.Context, familyID string) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, description, points, due_date, status, assignee_id, is_bonus
		FROM tasks WHERE family_id = ? AND status IN (?, ?)
		ORDER BY due_date, task_id`,
		familyID, domain.TaskPending, domain.TaskCompleted)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer closeRows(rows, "tasks")

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var description, dueDate, assignee sql.NullString
		var status string
		if err := rows.Scan(&t.ID, &t.Title, &description, &t.Points, &dueDate, &status, &assignee, &t.IsBonus); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		t.Description = description.String
		t.Status = domain.TaskStatus(status)
		t.AssigneeID = assignee.String
		if dueDate.Valid && dueDate.String != "" {
			due, err := time.ParseInLocation(domain.DateLayout, dueDate.String, s.loc)
			if err != nil {
				slog.Warn("ignoring unparseable due date", "task_id", t.ID, "due_date", dueDate.String)
			} else {
				t.DueDate = due
			}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQLiteStore) loadCompletions(ctx context.Context, familyID string, since time.Time) ([]domain.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, member_id, points, completed_at
		FROM completions WHERE family_id = ? AND completed_at >= ?
		ORDER BY completed_at DESC, id DESC`, familyID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer closeRows(rows, "completions")

	var out []domain.Completion
	for rows.Next() {
		var c domain.Completion
		var completedAt int64
		if err := rows.Scan(&c.TaskID, &c.Title, &c.MemberID, &c.Points, &completedAt); err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		c.CompletedAt = time.Unix(completedAt, 0).In(s.loc)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) loadPoints(ctx context.Context, familyID string) ([]domain.PointsEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, points, reason, created_at
		FROM points_ledger WHERE family_id = ? ORDER BY created_at, id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer closeRows(rows, "points")

	var out []domain.PointsEntry
	for rows.Next() {
		var p domain.PointsEntry
		var reason sql.NullString
		var createdAt int64
		if err := rows.Scan(&p.MemberID, &p.Points, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan points row: %w", err)
		}
		p.Reason = reason.String
		p.CreatedAt = time.Unix(createdAt, 0).In(s.loc)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return out, nil
}

// SaveFamily replaces a family's roster, tasks, completions and ledger in one
// transaction. Busy and locked errors are retried with backoff.
func (s *SQLiteStore) SaveFamily(ctx context.Context, fc *domain.FamilyContext) error {
	if fc == nil || fc.FamilyID == "" {
		return fmt.Errorf("save family: %w", ErrInvalidFamily)
	}
	policy := retry.SQLitePolicy()
	policy.OnRetry = func(attempt int, err error) {
		slog.Debug("SaveFamily hit a busy database, retrying", "family_id", fc.FamilyID, "attempt", attempt, "error", err)
	}
	_, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (struct{}, error) {
		return struct{}{}, s.saveFamilyOnce(ctx, fc)
	})
	if err != nil {
		return fmt.Errorf("save family %s: %w", fc.FamilyID, err)
	}
	return nil
}

func (s *SQLiteStore) saveFamilyOnce(ctx context.Context, fc *domain.FamilyContext) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("failed to roll back family save", "family_id", fc.FamilyID, "error", rbErr)
			}
		}
	}()

	now := s.now().Unix()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO families (family_id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(family_id) DO UPDATE SET updated_at = excluded.updated_at`,
		fc.FamilyID, now, now); err != nil {
		return fmt.Errorf("upsert family: %w", err)
	}

	for _, table := range []string{"members", "tasks", "completions", "points_ledger"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE family_id = ?`, fc.FamilyID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, m := range fc.Members {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO members (member_id, family_id, name, role, is_admin, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, fc.FamilyID, m.Name, string(m.Role), m.IsAdmin, i); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}

	for _, t := range fc.ActiveTasks {
		status := t.Status
		if status == "" {
			status = domain.TaskPending
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (task_id, family_id, title, description, points, due_date, status, assignee_id, is_bonus)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, fc.FamilyID, t.Title, nullable(t.Description), t.Points, dueDate(t.DueDate),
			string(status), nullable(t.AssigneeID), t.IsBonus); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	for _, c := range fc.CompletionHistory {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO completions (family_id, task_id, title, member_id, points, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			fc.FamilyID, c.TaskID, c.Title, c.MemberID, c.Points, c.CompletedAt.Unix()); err != nil {
			return fmt.Errorf("insert completion %s: %w", c.TaskID, err)
		}
	}

	for _, p := range fc.PointsData {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO points_ledger (family_id, member_id, points, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			fc.FamilyID, p.MemberID, p.Points, nullable(p.Reason), p.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("insert points entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit family: %w", err)
	}
	return nil
}

// AppendMessage stores one chat message. Missing ids and timestamps are filled in.
func (s *SQLiteStore) AppendMessage(ctx context.Context, familyID, sessionID string, msg domain.ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	var metadata any
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encode message metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err := retry.Do(ctx, retry.SQLitePolicy(), func(ctx context.Context, _ int) (sql.Result, error) {
		return s.db.ExecContext(ctx, `
			INSERT INTO conversation_messages (message_id, family_id, session_id, role, content, metadata_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, familyID, sessionID, string(msg.Role), msg.Content, metadata, msg.Timestamp.UnixMilli())
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentMessages returns the newest messages of a session, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, familyID, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, content, metadata_json, created_at
		FROM conversation_messages
		WHERE family_id = ? AND session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, familyID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer closeRows(rows, "messages")

	var out []domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		var role string
		var metadata sql.NullString
		var createdAt int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		msg.Timestamp = time.UnixMilli(createdAt).In(s.loc)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				slog.Warn("ignoring unreadable message metadata", "message_id", msg.ID, "error", err)
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

// CleanupMessages removes chat messages older than retention.
func (s *SQLiteStore) CleanupMessages(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := s.now().Add(-retention).UnixMilli()
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversation_messages WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup messages: %w", err)
	}
	return result.RowsAffected()
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dueDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(domain.DateLayout)
}
