package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
)

// ErrClosed is returned by a Memory store after Close.
var ErrClosed = errors.New("warehouse closed")

// Memory is an in-process raw-table store. It backs offline validation runs
// and tests, and has the same replace and snapshot semantics as Warehouse.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]raw.Row
	closed bool
}

// NewMemory returns an empty in-memory store with every raw table present.
func NewMemory() *Memory {
	m := &Memory{tables: make(map[string][]raw.Row)}
	for _, s := range raw.Schemas() {
		m.tables[s.Entity] = nil
	}
	return m
}

// Replace swaps the rows held for s.
func (m *Memory) Replace(ctx context.Context, s raw.Schema, rows []raw.Row) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("replace %s: %w", s.Entity, err)
	}
	cp := make([]raw.Row, len(rows))
	for i, r := range rows {
		cp[i] = append(raw.Row(nil), r...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.tables[s.Entity] = cp
	return nil
}

// Rows returns a copy of the rows held for s.
func (m *Memory) Rows(_ context.Context, s raw.Schema) ([]raw.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return append([]raw.Row(nil), m.tables[s.Entity]...), nil
}

// Snapshot decodes every table under one read lock.
func (m *Memory) Snapshot(ctx context.Context) (domain.Tables, error) {
	var tables domain.Tables
	if err := ctx.Err(); err != nil {
		return tables, fmt.Errorf("snapshot: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return tables, ErrClosed
	}
	for _, s := range raw.Schemas() {
		if err := raw.Decode(s.Entity, m.tables[s.Entity], &tables); err != nil {
			return domain.Tables{}, err
		}
	}
	return tables, nil
}

// RowCount returns the number of rows held for s.
func (m *Memory) RowCount(_ context.Context, s raw.Schema) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[s.Entity]), nil
}

// CheckReadiness fails only after Close.
func (m *Memory) CheckReadiness(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close discards all rows.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.tables = nil
	return nil
}
