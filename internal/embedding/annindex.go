package embedding

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// ANNIndex persists feature-path embeddings in a sqlite-vec virtual table
// (vec0), giving Store an ANN-backed search path instead of the brute-force
// scan Search uses by default. Construction degrades gracefully: if the
// sqlite-vec extension isn't loaded (no sqlite_vec+cgo build tag), Enabled
// reports false and callers fall back to Store.Search.
type ANNIndex struct {
	db      *sql.DB
	dim     int
	enabled bool
}

// NewANNIndex opens (or creates) a sqlite database at path and attempts to
// create the vec0 virtual table for the given embedding dimensionality.
func NewANNIndex(path string, dim int) (*ANNIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("embedding: open ann index db: %w", err)
	}

	idx := &ANNIndex{db: db, dim: dim}
	idx.init()
	return idx, nil
}

func (idx *ANNIndex) init() {
	stmt := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS feature_vec_index USING vec0(embedding float[%d], path TEXT, source TEXT, score FLOAT)",
		idx.dim,
	)
	if _, err := idx.db.Exec(stmt); err != nil {
		logging.Get(logging.CategoryStore).Warn("ann index: sqlite-vec unavailable, falling back to brute-force search: %v", err)
		idx.enabled = false
		return
	}
	idx.enabled = true
	logging.Store("ann index: sqlite-vec feature_vec_index ready (dim=%d)", idx.dim)
}

// Enabled reports whether the sqlite-vec extension loaded successfully.
func (idx *ANNIndex) Enabled() bool { return idx.enabled }

// Add inserts a batch of (FeaturePath, normalized vector) pairs.
func (idx *ANNIndex) Add(features []FeaturePath, vectors [][]float32) error {
	if !idx.enabled {
		return fmt.Errorf("embedding: ann index not enabled")
	}
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("embedding: ann index begin tx: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO feature_vec_index(embedding, path, source, score) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("embedding: ann index prepare: %w", err)
	}
	defer stmt.Close()

	for i, f := range features {
		if _, err := stmt.Exec(encodeVector(vectors[i]), f.Path, string(f.Source), f.Score); err != nil {
			tx.Rollback()
			return fmt.Errorf("embedding: ann index insert: %w", err)
		}
	}
	return tx.Commit()
}

// Search runs a cosine-distance KNN query against the vec0 index.
func (idx *ANNIndex) Search(query []float32, k int) ([]SearchResult, error) {
	if !idx.enabled {
		return nil, fmt.Errorf("embedding: ann index not enabled")
	}
	if k <= 0 {
		k = 10
	}

	rows, err := idx.db.Query(
		"SELECT path, source, score, vec_distance_cosine(embedding, ?) AS dist FROM feature_vec_index ORDER BY dist ASC LIMIT ?",
		encodeVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: ann index search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var path, source string
		var score, dist float64
		if err := rows.Scan(&path, &source, &score, &dist); err != nil {
			continue
		}
		out = append(out, SearchResult{
			FeaturePath: FeaturePath{Path: path, Score: score, Source: Source(source)},
			CosineScore: 1 - dist,
		})
	}
	return out, nil
}

// Close releases the underlying database handle.
func (idx *ANNIndex) Close() error { return idx.db.Close() }

func encodeVector(v []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}
