package repository

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
)

var ErrContactExists = errors.New("contact already exists")

// ContactMemoryRepository is the in-memory contact table behind the local
// CRM stub. Records keep creation order, which is also the paging order.
type ContactMemoryRepository struct {
	mu      sync.RWMutex
	records []dto.ContactRecord
	byEmail map[string]struct{}
}

func NewContactMemoryRepository() *ContactMemoryRepository {
	return &ContactMemoryRepository{byEmail: make(map[string]struct{})}
}

// List returns up to limit records starting at the offset encoded in after,
// and the cursor for the next page ("" when this is the last page).
func (r *ContactMemoryRepository) List(after string, limit int) ([]dto.ContactRecord, string, error) {
	offset := 0
	if after != "" {
		n, err := strconv.Atoi(after)
		if err != nil || n < 0 {
			return nil, "", errors.New("invalid paging cursor")
		}
		offset = n
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.records) {
		return []dto.ContactRecord{}, "", nil
	}
	end := min(offset+limit, len(r.records))
	page := make([]dto.ContactRecord, end-offset)
	copy(page, r.records[offset:end])

	next := ""
	if end < len(r.records) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// CreateBatch stores every input or none of them. A duplicate email, either
// already stored or repeated inside the batch, rejects the whole batch.
func (r *ContactMemoryRepository) CreateBatch(inputs []dto.ContactProperties) ([]dto.ContactRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		key := strings.ToLower(strings.TrimSpace(in.Email))
		if _, ok := r.byEmail[key]; ok {
			return nil, ErrContactExists
		}
		if _, ok := seen[key]; ok {
			return nil, ErrContactExists
		}
		seen[key] = struct{}{}
	}

	created := make([]dto.ContactRecord, 0, len(inputs))
	for _, in := range inputs {
		record := dto.ContactRecord{
			ID:         strconv.Itoa(len(r.records) + 1),
			Properties: in,
		}
		r.records = append(r.records, record)
		r.byEmail[strings.ToLower(strings.TrimSpace(in.Email))] = struct{}{}
		created = append(created, record)
	}
	return created, nil
}

func (r *ContactMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
