package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/boardcamp-api/internal/model"
	"github.com/iliyamo/boardcamp-api/internal/queue"
	"github.com/iliyamo/boardcamp-api/internal/repository"
)

// fakeStore is an in-memory gateway.  RunInTx holds a single lock for the
// whole callback, which is stricter than row locks, and restores the
// rentals table when the callback fails.
type fakeStore struct {
	mu        sync.Mutex
	customers map[uint64]model.Customer
	games     map[uint64]model.Game
	rentals   map[uint64]model.Rental
	nextID    uint64

	failCount error
	// forceStale makes the guarded writes report zero affected rows.
	forceStale bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[uint64]model.Customer{},
		games:     map[uint64]model.Game{},
		rentals:   map[uint64]model.Rental{},
	}
}

func (s *fakeStore) RunInTx(ctx context.Context, fn func(q repository.RentalQueries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[uint64]model.Rental, len(s.rentals))
	for k, v := range s.rentals {
		snapshot[k] = v
	}
	next := s.nextID
	if err := fn(s); err != nil {
		s.rentals = snapshot
		s.nextID = next
		return err
	}
	return nil
}

func (s *fakeStore) FindCustomerByID(_ context.Context, id uint64) (*model.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *fakeStore) FindGameByID(_ context.Context, id uint64) (*model.Game, error) {
	g, ok := s.games[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (s *fakeStore) FindGameByIDForUpdate(ctx context.Context, id uint64) (*model.Game, error) {
	return s.FindGameByID(ctx, id)
}

func (s *fakeStore) CountOpenRentalsForGame(_ context.Context, gameID uint64) (int, error) {
	if s.failCount != nil {
		return 0, s.failCount
	}
	n := 0
	for _, r := range s.rentals {
		if r.GameID == gameID && r.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) InsertRental(_ context.Context, r *model.Rental) error {
	s.nextID++
	r.ID = s.nextID
	s.rentals[r.ID] = *r
	return nil
}

func (s *fakeStore) FindRentalByIDForUpdate(_ context.Context, id uint64) (*model.Rental, error) {
	r, ok := s.rentals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *fakeStore) UpdateRentalReturn(_ context.Context, id uint64, returnDate time.Time, delayFee *int64) (bool, error) {
	r, ok := s.rentals[id]
	if !ok || !r.IsOpen() || s.forceStale {
		return false, nil
	}
	r.ReturnDate = &returnDate
	r.DelayFee = delayFee
	s.rentals[id] = r
	return true, nil
}

func (s *fakeStore) DeleteOpenRental(_ context.Context, id uint64) (bool, error) {
	r, ok := s.rentals[id]
	if !ok || !r.IsOpen() || s.forceStale {
		return false, nil
	}
	delete(s.rentals, id)
	return true, nil
}

func (s *fakeStore) List(_ context.Context, f repository.RentalFilter, _ repository.Page) ([]model.RentalDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RentalDetail
	for _, r := range s.rentals {
		if f.CustomerID != 0 && r.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, model.RentalDetail{Rental: r})
	}
	return out, nil
}

func (s *fakeStore) Metrics(_ context.Context, _, _ *time.Time) (model.RentalMetrics, error) {
	return model.RentalMetrics{}, errors.New("not used")
}

func (s *fakeStore) ListOverdue(_ context.Context, now time.Time) ([]model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Rental
	for _, r := range s.rentals {
		if r.IsOpen() && r.DueDate().Before(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) openFor(gameID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.CountOpenRentalsForGame(context.Background(), gameID)
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RentalEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.RentalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
