package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/ports"
)

// Memory implementa ports.Oracle con feeds configurados a mano. Pensado
// para tests y el modo demo.
type Memory struct {
	mu       sync.Mutex
	feeds    map[string]ports.OracleData
	consumed map[string]bool
}

// NewMemory crea un oráculo en memoria sin feeds.
func NewMemory() *Memory {
	return &Memory{
		feeds:    make(map[string]ports.OracleData),
		consumed: make(map[string]bool),
	}
}

// Set fija el dato actual de un feed.
func (m *Memory) Set(ref string, data ports.OracleData) {
	m.mu.Lock()
	m.feeds[ref] = data
	m.consumed[ref] = false
	m.mu.Unlock()
}

// GetData devuelve el dato del feed; un dato ya consumido deja de ser
// válido hasta que se fije uno nuevo.
func (m *Memory) GetData(_ context.Context, ref string) (ports.OracleData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.feeds[ref]
	if !ok {
		return ports.OracleData{}, fmt.Errorf("oracle.GetData: unknown feed %s: %w", ref, domain.ErrExternalData)
	}
	if m.consumed[ref] {
		data.Valid = false
	}
	return data, nil
}

// MarkConsumed marca el dato actual del feed como gastado.
func (m *Memory) MarkConsumed(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feeds[ref]; !ok {
		return fmt.Errorf("oracle.MarkConsumed: unknown feed %s: %w", ref, domain.ErrExternalData)
	}
	m.consumed[ref] = true
	return nil
}

// Consumed indica si el dato actual del feed ya liquidó un pool.
func (m *Memory) Consumed(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed[ref]
}
