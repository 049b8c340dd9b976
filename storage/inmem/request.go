package inmemdb

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core/placement"
)

type requestRepository struct {
	db *requestTable
}

var _ placement.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *DB) placement.Repository {
	return &requestRepository{db: db.request}
}

func (repo *requestRepository) CreateRequest(req placement.Request) (placement.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[req.ID] = &req
	return req, nil
}

func (repo *requestRepository) GetRequest(id string) (placement.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.table[id]; ok {
		return *req, nil
	}
	return placement.Request{}, errors.WithStack(placement.ErrNotFound)
}

func (repo *requestRepository) UpdateRequestIf(id string, fn func(req *placement.Request) error) (placement.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return placement.Request{}, errors.WithStack(placement.ErrNotFound)
	}
	req := *stored
	if err := fn(&req); err != nil {
		return placement.Request{}, err
	}
	repo.db.table[id] = &req
	return req, nil
}

// FilterRequests returns the matching requests, newest first.
func (repo *requestRepository) FilterRequests(filter placement.QueryFilter) ([]placement.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reqs := make([]placement.Request, 0)
	for _, req := range repo.db.table {
		if filter.Match(*req) {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}
