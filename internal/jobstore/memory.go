package jobstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryCollection is the in-process fallback collection: a map guarded by
// a mutex, satisfying the same insert_one/find_one/update_one/find()
// contract as the sqlite-backed collection.
type MemoryCollection struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryCollection builds an empty in-process job collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{jobs: make(map[string]*Job)}
}

func (c *MemoryCollection) InsertOne(_ context.Context, job *Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.jobs[job.ID]; exists {
		return fmt.Errorf("jobstore: job %q already exists", job.ID)
	}
	cp := *job
	c.jobs[job.ID] = &cp
	return nil
}

func (c *MemoryCollection) FindOne(_ context.Context, id string) (*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	cp := *job
	return &cp, nil
}

func (c *MemoryCollection) UpdateOne(_ context.Context, id string, update Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	applyUpdate(job, update)
	return nil
}

func (c *MemoryCollection) Find(_ context.Context) Query {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := make([]*Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		cp := *job
		all = append(all, &cp)
	}
	return &memoryQuery{jobs: all}
}

type memoryQuery struct {
	jobs       []*Job
	sortField  string
	descending bool
	skip       int
	limit      int
}

func (q *memoryQuery) Sort(field string, descending bool) Query {
	q.sortField = field
	q.descending = descending
	return q
}

func (q *memoryQuery) Skip(n int) Query {
	q.skip = n
	return q
}

func (q *memoryQuery) Limit(n int) Query {
	q.limit = n
	return q
}

func (q *memoryQuery) All(_ context.Context) ([]*Job, error) {
	out := make([]*Job, len(q.jobs))
	copy(out, q.jobs)

	if q.sortField != "" {
		sort.Slice(out, func(i, j int) bool {
			less := fieldValue(out[i], q.sortField) < fieldValue(out[j], q.sortField)
			if q.descending {
				return !less
			}
			return less
		})
	}

	if q.skip > 0 {
		if q.skip >= len(out) {
			return nil, nil
		}
		out = out[q.skip:]
	}
	if q.limit > 0 && q.limit < len(out) {
		out = out[:q.limit]
	}
	return out, nil
}

func fieldValue(j *Job, field string) int64 {
	switch field {
	case "updated_at":
		return j.UpdatedAt
	default:
		return j.CreatedAt
	}
}

func applyUpdate(job *Job, update Update) {
	for key, val := range update {
		switch key {
		case "status":
			if s, ok := val.(Status); ok {
				job.Status = s
			} else if s, ok := val.(string); ok {
				job.Status = Status(s)
			}
		case "progress":
			if n, ok := val.(int); ok {
				job.Progress = n
			}
		case "current_stage":
			if s, ok := val.(string); ok {
				job.CurrentStage = s
			}
		case "result":
			if r, ok := val.(map[string]interface{}); ok {
				job.Result = r
			}
		case "error":
			if s, ok := val.(string); ok {
				job.Error = s
			}
		case "updated_at":
			if n, ok := val.(int64); ok {
				job.UpdatedAt = n
			}
		}
	}
}
