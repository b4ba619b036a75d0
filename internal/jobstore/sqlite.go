package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// SQLiteCollection persists jobs as JSON-blob rows: one id column plus a
// single JSON payload column, guarded by a mutex around the *sql.DB.
type SQLiteCollection struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteCollection opens (or creates) the jobs table at path.
func NewSQLiteCollection(path string) (*SQLiteCollection, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("jobstore: open db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("jobstore: create table: %w", err)
	}
	logging.Store("jobstore: sqlite collection ready at %s", path)
	return &SQLiteCollection{db: db}, nil
}

func (c *SQLiteCollection) InsertOne(_ context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: marshal job: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		"INSERT INTO jobs (id, created_at, updated_at, payload) VALUES (?, ?, ?, ?)",
		job.ID, job.CreatedAt, job.UpdatedAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("jobstore: insert: %w", err)
	}
	return nil
}

func (c *SQLiteCollection) FindOne(_ context.Context, id string) (*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var payload string
	err := c.db.QueryRow("SELECT payload FROM jobs WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, &ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: find: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal job: %w", err)
	}
	return &job, nil
}

func (c *SQLiteCollection) UpdateOne(ctx context.Context, id string, update Update) error {
	job, err := c.FindOne(ctx, id)
	if err != nil {
		return err
	}
	applyUpdate(job, update)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: marshal job: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.db.Exec(
		"UPDATE jobs SET payload = ?, updated_at = ? WHERE id = ?",
		string(payload), job.UpdatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("jobstore: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ErrNotFound{ID: id}
	}
	return nil
}

func (c *SQLiteCollection) Find(_ context.Context) Query {
	return &sqliteQuery{db: c.db, mu: &c.mu}
}

type sqliteQuery struct {
	db         *sql.DB
	mu         *sync.RWMutex
	sortField  string
	descending bool
	skip       int
	limit      int
}

func (q *sqliteQuery) Sort(field string, descending bool) Query {
	q.sortField = field
	q.descending = descending
	return q
}

func (q *sqliteQuery) Skip(n int) Query {
	q.skip = n
	return q
}

func (q *sqliteQuery) Limit(n int) Query {
	q.limit = n
	return q
}

func (q *sqliteQuery) All(_ context.Context) ([]*Job, error) {
	column := "created_at"
	if q.sortField == "updated_at" {
		column = "updated_at"
	}
	order := "ASC"
	if q.descending {
		order = "DESC"
	}

	sqlStr := fmt.Sprintf("SELECT payload FROM jobs ORDER BY %s %s", column, order)
	args := []interface{}{}
	if q.limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, q.limit)
		if q.skip > 0 {
			sqlStr += " OFFSET ?"
			args = append(args, q.skip)
		}
	} else if q.skip > 0 {
		sqlStr += " LIMIT -1 OFFSET ?"
		args = append(args, q.skip)
	}

	q.mu.RLock()
	rows, err := q.db.Query(sqlStr, args...)
	q.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("jobstore: query: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			continue
		}
		out = append(out, &job)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCollection) Close() error { return c.db.Close() }
