package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"contas/internal/core"
)

type periodKey struct{ year, month int }

// Store keeps bills and income in process memory.
type Store struct {
	mu     sync.Mutex
	rows   map[string]core.Installment
	income map[periodKey]core.IncomeRecord
}

func New() *Store {
	return &Store{
		rows:   make(map[string]core.Installment),
		income: make(map[periodKey]core.IncomeRecord),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Get(_ context.Context, id string) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.rows[id]
	if !ok {
		return core.Installment{}, fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}
	return in, nil
}

// InsertBatch stores every row or none.
func (s *Store) InsertBatch(_ context.Context, rows []core.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkInsertable(rows, nil); err != nil {
		return err
	}
	for _, in := range rows {
		s.rows[in.ID] = in
	}
	return nil
}

func (s *Store) ReplaceCohort(_ context.Context, name string, from core.Date, replacement []core.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool)
	for id, in := range s.rows {
		if in.Name == name && in.DueDate.Compare(from) >= 0 {
			removed[id] = true
		}
	}
	if err := s.checkInsertable(replacement, removed); err != nil {
		return err
	}
	for id := range removed {
		delete(s.rows, id)
	}
	for _, in := range replacement {
		s.rows[in.ID] = in
	}
	return nil
}

func (s *Store) SetPaid(_ context.Context, id string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}
	in.Paid = paid
	s.rows[id] = in
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
	}
	delete(s.rows, id)
	return nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Installment, error) {
	return s.filter(func(core.Installment) bool { return true }), nil
}

func (s *Store) ListByPeriod(_ context.Context, year, month int) ([]core.Installment, error) {
	return s.filter(func(in core.Installment) bool {
		return in.Year == year && in.Month == month
	}), nil
}

func (s *Store) ListUnpaidDueBetween(_ context.Context, from, to core.Date) ([]core.Installment, error) {
	return s.filter(func(in core.Installment) bool {
		return !in.Paid && in.DueDate.Compare(from) >= 0 && in.DueDate.Compare(to) <= 0
	}), nil
}

func (s *Store) GetIncome(_ context.Context, year, month int) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.income[periodKey{year, month}]
	if !ok {
		return core.IncomeRecord{}, fmt.Errorf("income %d-%02d: %w", year, month, core.ErrNotFound)
	}
	return rec, nil
}

func (s *Store) UpsertIncome(_ context.Context, rec core.IncomeRecord) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey{rec.Year, rec.Month}
	if existing, ok := s.income[key]; ok {
		rec.ID = existing.ID
	}
	s.income[key] = rec
	return rec, nil
}

// checkInsertable rejects ids already present unless they are about to be
// removed.
func (s *Store) checkInsertable(rows []core.Installment, removing map[string]bool) error {
	seen := make(map[string]bool, len(rows))
	for _, in := range rows {
		if seen[in.ID] {
			return fmt.Errorf("duplicate installment id %s", in.ID)
		}
		seen[in.ID] = true
		if _, exists := s.rows[in.ID]; exists && !removing[in.ID] {
			return fmt.Errorf("installment %s already exists", in.ID)
		}
	}
	return nil
}

func (s *Store) filter(keep func(core.Installment) bool) []core.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Installment, 0, len(s.rows))
	for _, in := range s.rows {
		if keep(in) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].DueDate.Compare(out[j].DueDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
