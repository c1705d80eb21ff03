// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// CreateOrder inserts a new order document and returns its id.
func (s *Store) CreateOrder(ctx context.Context, title, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (title, content, updated_at) VALUES (?, ?, ?)`,
		title, content, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("creating order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating order: %w", err)
	}
	return id, nil
}

// GetOrder returns the order document with the given id, or nil when it
// does not exist.
func (s *Store) GetOrder(ctx context.Context, id int64) (*types.OrderDocument, error) {
	var (
		doc         types.OrderDocument
		title       sql.NullString
		resultsJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, analysis_results, analysis_error FROM orders WHERE id = ?`, id,
	).Scan(&doc.ID, &title, &doc.Content, &resultsJSON, &doc.AnalysisError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up order %d: %w", id, err)
	}

	doc.Title = title.String
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &doc.AnalysisResults); err != nil {
			return nil, fmt.Errorf("parsing analysis results for order %d: %w", id, err)
		}
	}
	return &doc, nil
}

// UpdateOrderContent replaces the order's content. Returns false when
// the order does not exist.
func (s *Store) UpdateOrderContent(ctx context.Context, id int64, content string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET content = ?, updated_at = ? WHERE id = ?`,
		content, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return false, fmt.Errorf("updating order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating order %d: %w", id, err)
	}
	return n > 0, nil
}

// SaveAnalysis persists the annotation list for an order, clearing any
// previous error marker. A nil mentions slice is stored as an empty
// list so consumers always see a list-shaped field.
func (s *Store) SaveAnalysis(ctx context.Context, id int64, mentions []types.Mention) error {
	if mentions == nil {
		mentions = []types.Mention{}
	}
	resultsJSON, err := json.Marshal(mentions)
	if err != nil {
		return fmt.Errorf("marshaling analysis results: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET analysis_results = ?, analysis_error = '', updated_at = ? WHERE id = ?`,
		string(resultsJSON), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("saving analysis for order %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saving analysis for order %d: order not found", id)
	}
	return nil
}

// SaveAnalysisError records a durable error marker for an order whose
// analysis run could not complete.
func (s *Store) SaveAnalysisError(ctx context.Context, id int64, msg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE orders SET analysis_error = ?, updated_at = ? WHERE id = ?`,
		msg, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("saving analysis error for order %d: %w", id, err)
	}
	return nil
}
