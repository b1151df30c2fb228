package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/taskboard/internal/board"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB is a SQLite-backed RemoteStore. Each partition is a separate table;
// writes publish a change notification for the affected partition after
// they commit.
type DB struct {
	conn *sql.DB
	path string
	pub  *publisher
}

var _ RemoteStore = (*DB)(nil)

// Open creates a store connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the database doesn't exist, it is created; call InitSchema before use.
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn: conn,
		path: path,
		pub:  newPublisher(),
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	return db, nil
}

// OpenMemory opens an in-memory store, used by tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	// A single connection keeps every query on the same in-memory database.
	conn.SetMaxOpenConns(1)
	return &DB{conn: conn, pub: newPublisher()}, nil
}

// Path returns the on-disk database path, or "" for in-memory stores.
func (db *DB) Path() string {
	return db.path
}

// Close closes the publisher and the database connection.
func (db *DB) Close() error {
	db.pub.close()

	if db.conn == nil {
		return nil
	}
	if db.path != "" {
		if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
		}
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the store schema if it doesn't exist. Idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'todo',
		priority TEXT NOT NULL DEFAULT 'medium',
		assignee_id TEXT,
		due_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'todo',
		priority TEXT NOT NULL DEFAULT 'medium',
		assignee_id TEXT,
		due_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT,
		avatar_url TEXT
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		committee TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_project_tasks_status ON project_tasks(status);
	CREATE INDEX IF NOT EXISTS idx_project_tasks_project ON project_tasks(project_id);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// tableFor maps a partition to its backing table.
func tableFor(p Partition) string {
	if p == PartitionProject {
		return "project_tasks"
	}
	return "tasks"
}

// ListTasks implements RemoteStore.ListTasks.
func (db *DB) ListTasks(ctx context.Context, p Partition) ([]board.Task, error) {
	var query string
	if p == PartitionProject {
		query = `
		SELECT id, project_id, title, description, status, priority,
		       assignee_id, due_at, created_at, updated_at
		FROM project_tasks
		ORDER BY created_at ASC`
	} else {
		query = `
		SELECT id, '', title, description, status, priority,
		       assignee_id, due_at, created_at, updated_at
		FROM tasks
		ORDER BY created_at ASC`
	}

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s tasks: %w", p, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// TaskExists implements RemoteStore.TaskExists.
func (db *DB) TaskExists(ctx context.Context, p Partition, id string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", tableFor(p))

	var one int
	err := db.conn.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe %s partition for %s: %w", p, id, err)
	}
	return true, nil
}

// InsertTask implements RemoteStore.InsertTask. An empty id is assigned by
// the store; timestamps are set if missing.
func (db *DB) InsertTask(ctx context.Context, p Partition, task board.Task) (board.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.SetDefaults()
	if err := task.Validate(); err != nil {
		return board.Task{}, fmt.Errorf("invalid task: %w", err)
	}
	if p == PartitionProject && task.ProjectID == "" {
		return board.Task{}, fmt.Errorf("project partition requires a project id")
	}

	var query string
	args := []any{task.ID}
	if p == PartitionProject {
		query = `
		INSERT INTO project_tasks (id, project_id, title, description, status,
			priority, assignee_id, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = append(args, task.ProjectID)
	} else {
		query = `
		INSERT INTO tasks (id, title, description, status,
			priority, assignee_id, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}
	args = append(args,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullString(task.AssigneeID),
		timeToNullString(task.DueAt),
		task.CreatedAt.Format(time.RFC3339),
		task.UpdatedAt.Format(time.RFC3339),
	)

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return board.Task{}, fmt.Errorf("failed to insert task into %s partition: %w", p, err)
	}

	db.pub.publish(p, ChangeInsert, task.ID)
	return task, nil
}

// UpdateTask implements RemoteStore.UpdateTask.
func (db *DB) UpdateTask(ctx context.Context, p Partition, id string, u board.Update) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}

	var sets []string
	var args []any

	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*u.Priority))
	}
	if u.AssigneeID != nil {
		sets = append(sets, "assignee_id = ?")
		args = append(args, nullString(*u.AssigneeID))
	}
	if u.Due.Present() {
		sets = append(sets, "due_at = ?")
		args = append(args, timeToNullString(u.Due.Value()))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		tableFor(p), strings.Join(sets, ", "))

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task %s in %s partition: %w", id, p, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update task %s in %s partition: %w", id, p, ErrNotFound)
	}

	db.pub.publish(p, ChangeUpdate, id)
	return nil
}

// DeleteTask implements RemoteStore.DeleteTask.
func (db *DB) DeleteTask(ctx context.Context, p Partition, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", tableFor(p))

	res, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s from %s partition: %w", id, p, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete task %s from %s partition: %w", id, p, ErrNotFound)
	}

	db.pub.publish(p, ChangeDelete, id)
	return nil
}

// Users implements RemoteStore.Users.
func (db *DB) Users(ctx context.Context, ids []string) (map[string]board.UserSummary, error) {
	out := make(map[string]board.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(
		"SELECT id, name, email, role, avatar_url FROM users WHERE id IN (%s)",
		placeholders(len(ids)))

	rows, err := db.conn.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u board.UserSummary
		var email, role, avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &role, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Email = email.String
		u.Role = role.String
		u.AvatarURL = avatar.String
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return out, nil
}

// Projects implements RemoteStore.Projects.
func (db *DB) Projects(ctx context.Context, ids []string) (map[string]board.ProjectSummary, error) {
	out := make(map[string]board.ProjectSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(
		"SELECT id, name, committee FROM projects WHERE id IN (%s)",
		placeholders(len(ids)))

	rows, err := db.conn.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p board.ProjectSummary
		var committee sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &committee); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Committee = committee.String
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return out, nil
}

// Subscribe implements RemoteStore.Subscribe.
func (db *DB) Subscribe(p Partition) (<-chan Change, func()) {
	return db.pub.subscribe(p)
}

// UpsertUser inserts or updates a user profile.
func (db *DB) UpsertUser(ctx context.Context, u board.UserSummary) error {
	if u.ID == "" || u.Name == "" {
		return fmt.Errorf("user id and name are required")
	}

	query := `
	INSERT INTO users (id, name, email, role, avatar_url)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		role = excluded.role,
		avatar_url = excluded.avatar_url`

	if _, err := db.conn.ExecContext(ctx, query,
		u.ID, u.Name, nullString(u.Email), nullString(u.Role), nullString(u.AvatarURL)); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

// UpsertProject inserts or updates a project.
func (db *DB) UpsertProject(ctx context.Context, p board.ProjectSummary) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("project id and name are required")
	}

	query := `
	INSERT INTO projects (id, name, committee)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		committee = excluded.committee`

	if _, err := db.conn.ExecContext(ctx, query,
		p.ID, p.Name, nullString(p.Committee)); err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	return nil
}

// StatusCounts returns per-status task counts across both partitions.
func (db *DB) StatusCounts(ctx context.Context) (map[board.Status]int, error) {
	query := `
	SELECT status, COUNT(*) FROM (
		SELECT status FROM tasks
		UNION ALL
		SELECT status FROM project_tasks
	) GROUP BY status`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[board.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		out[board.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return out, nil
}

// scanTasks scans rows in the shared column order:
// id, project_id, title, description, status, priority, assignee_id,
// due_at, created_at, updated_at.
func scanTasks(rows *sql.Rows) ([]board.Task, error) {
	var tasks []board.Task

	for rows.Next() {
		var task board.Task
		var description, assigneeID, dueAt sql.NullString
		var createdAt, updatedAt string

		err := rows.Scan(
			&task.ID,
			&task.ProjectID,
			&task.Title,
			&description,
			&task.Status,
			&task.Priority,
			&assigneeID,
			&dueAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		task.Description = description.String
		task.AssigneeID = assigneeID.String
		task.DueAt = nullStringToTime(dueAt)

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			task.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			task.UpdatedAt = t
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// timeToNullString converts a time pointer to a nullable string for SQL.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
