package readmodel

import (
	"context"
	"sort"
	"sync"
)

// MemRepository is an in-memory Repository for tests and the in-process
// dispatch wiring.
type MemRepository struct {
	mu   sync.RWMutex
	rows map[string]User
}

// NewMemRepository builds an empty MemRepository.
func NewMemRepository() *MemRepository {
	return &MemRepository{rows: make(map[string]User)}
}

func (r *MemRepository) Get(_ context.Context, userID string) (User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[userID]
	return u, ok, nil
}

func (r *MemRepository) List(_ context.Context, params ListParams) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []User
	for _, u := range r.rows {
		if u.IsDeleted() {
			continue
		}
		if params.Username != "" && u.Username != params.Username {
			continue
		}
		if params.Email != "" && u.Email != params.Email {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UserID < matched[j].UserID })

	total := len(matched)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return Page{Users: matched[start:end], Page: params.Page, PageSize: params.PageSize, TotalCount: total}, nil
}

func (r *MemRepository) Upsert(_ context.Context, row User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[row.UserID]; ok && existing.Revision >= row.Revision {
		return nil
	}
	r.rows[row.UserID] = row
	return nil
}

var _ Repository = (*MemRepository)(nil)
