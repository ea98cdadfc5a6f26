package store

import (
	"encoding/json"
	"time"

	"github.com/vrsandeep/gitpm/internal/models"
)

// RecordOperation appends an entry to the operation history.
func (s *Store) RecordOperation(kind, target string, refs []string, status, message string) (int64, error) {
	if refs == nil {
		refs = []string{}
	}
	encoded, err := json.Marshal(refs)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`
		INSERT INTO operations (kind, target, refs, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, kind, target, string(encoded), status, message, time.Now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListOperations returns the most recent operations first.
func (s *Store) ListOperations(limit int) ([]models.Operation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, kind, target, refs, status, message, created_at
		FROM operations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []models.Operation
	for rows.Next() {
		var op models.Operation
		var refs string
		if err := rows.Scan(&op.ID, &op.Kind, &op.Target, &refs, &op.Status, &op.Message, &op.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(refs), &op.References); err != nil {
			op.References = []string{}
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}
