// Package service holds the rental lifecycle engine: creation, return,
// deletion, listing and reporting over the persistence gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/boardcamp-api/internal/metrics"
	"github.com/iliyamo/boardcamp-api/internal/model"
	"github.com/iliyamo/boardcamp-api/internal/queue"
	"github.com/iliyamo/boardcamp-api/internal/repository"
)

// RentalStore is the persistence gateway the engine depends on.
// *repository.RentalRepo satisfies it.
type RentalStore interface {
	RunInTx(ctx context.Context, fn func(q repository.RentalQueries) error) error
	List(ctx context.Context, f repository.RentalFilter, p repository.Page) ([]model.RentalDetail, error)
	Metrics(ctx context.Context, from, to *time.Time) (model.RentalMetrics, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.Rental, error)
}

// CreateRentalInput is the body of POST /rentals.
type CreateRentalInput struct {
	CustomerID uint64 `json:"customerId"`
	GameID     uint64 `json:"gameId"`
	DaysRented int    `json:"daysRented"`
}

const publishTimeout = 5 * time.Second

type RentalService struct {
	store   RentalStore
	pub     Publisher
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewRentalService wires the engine.  pub and m may be nil.
func NewRentalService(store RentalStore, pub Publisher, m *metrics.Metrics, log logrus.FieldLogger) *RentalService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &RentalService{
		store:   store,
		pub:     pub,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.  Tests use it to pin "now".
func (s *RentalService) WithClock(now func() time.Time) *RentalService {
	s.now = now
	return s
}

// stamp is the current instant at the precision of a DATETIME column, so
// the stored value and the one returned to the caller agree.
func (s *RentalService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Create opens a rental.  Checks run in order: customer exists, game
// exists, daysRented >= 1, a copy is free.  The game row stays locked until
// the insert commits so concurrent creations cannot oversubscribe stock.
func (s *RentalService) Create(ctx context.Context, in CreateRentalInput) (*model.Rental, error) {
	var created model.Rental
	err := s.store.RunInTx(ctx, func(q repository.RentalQueries) error {
		if _, err := q.FindCustomerByID(ctx, in.CustomerID); err != nil {
			return lookupErr(err, ErrInvalidReference, "find customer")
		}
		game, err := q.FindGameByIDForUpdate(ctx, in.GameID)
		if err != nil {
			return lookupErr(err, ErrInvalidReference, "find game")
		}
		if in.DaysRented < 1 {
			return ErrInvalidInput
		}
		open, err := q.CountOpenRentalsForGame(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("count open rentals: %w", err)
		}
		if open >= game.StockTotal {
			return ErrCapacityExceeded
		}

		created = model.Rental{
			CustomerID:    in.CustomerID,
			GameID:        game.ID,
			RentDate:      s.stamp(),
			DaysRented:    in.DaysRented,
			OriginalPrice: OriginalPrice(in.DaysRented, game.PricePerDay),
		}
		if err := q.InsertRental(ctx, &created); err != nil {
			return fmt.Errorf("insert rental: %w", err)
		}
		return nil
	})
	if err != nil {
		s.rejected("create", err)
		return nil, err
	}

	s.metrics.RentalCreated()
	s.publish(ctx, queue.EventRentalCreated, created)
	return &created, nil
}

// Return closes an open rental and charges a delay fee when it was kept
// longer than paid for.  The fee uses the game's price at return time.
func (s *RentalService) Return(ctx context.Context, id uint64) (*model.Rental, error) {
	var returned model.Rental
	err := s.store.RunInTx(ctx, func(q repository.RentalQueries) error {
		r, err := q.FindRentalByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(err, ErrNotFound, "find rental")
		}
		if !r.IsOpen() {
			return ErrInvalidState
		}
		game, err := q.FindGameByID(ctx, r.GameID)
		if err != nil {
			return fmt.Errorf("find game: %w", err)
		}

		now := s.stamp()
		fee := DelayFee(ElapsedDays(r.RentDate, now), r.DaysRented, game.PricePerDay)
		applied, err := q.UpdateRentalReturn(ctx, r.ID, now, fee)
		if err != nil {
			return fmt.Errorf("update rental: %w", err)
		}
		if !applied {
			return ErrInvalidState
		}
		r.ReturnDate = &now
		r.DelayFee = fee
		returned = *r
		return nil
	})
	if err != nil {
		s.rejected("return", err)
		return nil, err
	}

	s.metrics.RentalReturned(returned.DelayFee)
	s.publish(ctx, queue.EventRentalReturned, returned)
	return &returned, nil
}

// Delete removes a rental that has not been returned.
func (s *RentalService) Delete(ctx context.Context, id uint64) error {
	var deleted model.Rental
	err := s.store.RunInTx(ctx, func(q repository.RentalQueries) error {
		r, err := q.FindRentalByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(err, ErrNotFound, "find rental")
		}
		if !r.IsOpen() {
			return ErrInvalidState
		}
		applied, err := q.DeleteOpenRental(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("delete rental: %w", err)
		}
		if !applied {
			return ErrInvalidState
		}
		deleted = *r
		return nil
	})
	if err != nil {
		s.rejected("delete", err)
		return err
	}

	s.metrics.RentalDeleted()
	s.publish(ctx, queue.EventRentalDeleted, deleted)
	return nil
}

// List returns enriched rentals; never nil.
func (s *RentalService) List(ctx context.Context, f repository.RentalFilter, p repository.Page) ([]model.RentalDetail, error) {
	out, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	if out == nil {
		out = []model.RentalDetail{}
	}
	return out, nil
}

// Metrics reports revenue for rentals started in [from, to).
func (s *RentalService) Metrics(ctx context.Context, from, to *time.Time) (model.RentalMetrics, error) {
	if from != nil && to != nil && !to.After(*from) {
		return model.RentalMetrics{}, ErrInvalidInput
	}
	m, err := s.store.Metrics(ctx, from, to)
	if err != nil {
		return model.RentalMetrics{}, fmt.Errorf("rental metrics: %w", err)
	}
	return m, nil
}

// SweepOverdue finds open rentals past their due date, records the count
// and publishes one rental.overdue event per rental.
func (s *RentalService) SweepOverdue(ctx context.Context) (int, error) {
	rentals, err := s.store.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list overdue rentals: %w", err)
	}
	s.metrics.SetOverdue(len(rentals))
	for _, r := range rentals {
		s.publish(ctx, queue.EventRentalOverdue, r)
	}
	return len(rentals), nil
}

func (s *RentalService) publish(ctx context.Context, typ string, r model.Rental) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(pctx, queue.NewRentalEvent(typ, r, s.now())); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":     typ,
			"rental_id": r.ID,
		}).Warn("publish rental event failed")
	}
}

func (s *RentalService) rejected(op string, err error) {
	if r := reason(err); r != "" {
		s.metrics.RentalRejected(op, r)
	}
}

// lookupErr maps a missing row to the given business error and wraps
// anything else as an infrastructure failure.
func lookupErr(err, missing error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return missing
	}
	return fmt.Errorf("%s: %w", what, err)
}
