package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"subtrack/internal/core"
	"subtrack/internal/sheets"
)

var _ sheets.SubscriptionMirror = (*Mirror)(nil)

// Mirror is an in-process sheet: an ordered list of rows.
type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Mirror {
	return &Mirror{}
}

// Upsert overwrites the row whose first cell is s.ID or appends a new one.
func (m *Mirror) Upsert(_ context.Context, s core.Subscription) (string, error) {
	if s.ID <= 0 {
		return "", fmt.Errorf("mirror subscription: invalid id %d", s.ID)
	}
	row := sheets.RowValues(s)

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(s.ID); i >= 0 {
		m.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, row)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (m *Mirror) indexOf(id int64) int {
	key := strconv.FormatInt(id, 10)
	for i, r := range m.rows {
		if len(r) > 0 && r[0] == key {
			return i
		}
	}
	return -1
}
