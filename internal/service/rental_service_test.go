package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardcamp-api/internal/metrics"
	"github.com/iliyamo/boardcamp-api/internal/model"
	"github.com/iliyamo/boardcamp-api/internal/queue"
	"github.com/iliyamo/boardcamp-api/internal/repository"
)

var day0 = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T, stock int, price int64) (*RentalService, *fakeStore, *recordingPublisher, *clock) {
	t.Helper()
	store := newFakeStore()
	store.customers[1] = model.Customer{ID: 1, Name: "João Alfredo"}
	store.games[1] = model.Game{ID: 1, Name: "Banco Imobiliário", StockTotal: stock, PricePerDay: price}
	pub := &recordingPublisher{}
	log, _ := test.NewNullLogger()
	clk := &clock{t: day0}
	svc := NewRentalService(store, pub, metrics.New(), log).WithClock(clk.now)
	return svc, store, pub, clk
}

func TestCreateSetsPriceAndExhaustsStock(t *testing.T) {
	svc, store, pub, _ := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(30), r.OriginalPrice)
	assert.Equal(t, day0, r.RentDate)
	assert.Nil(t, r.ReturnDate)
	assert.Nil(t, r.DelayFee)
	assert.NotZero(t, r.ID)

	_, err = svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, store.rentals, 1)
	assert.Equal(t, []string{queue.EventRentalCreated}, pub.types())
}

func TestCreateValidationOrder(t *testing.T) {
	tests := []struct {
		name string
		in   CreateRentalInput
		want error
	}{
		{"unknown customer", CreateRentalInput{CustomerID: 9, GameID: 1, DaysRented: 3}, ErrInvalidReference},
		{"unknown game", CreateRentalInput{CustomerID: 1, GameID: 9, DaysRented: 3}, ErrInvalidReference},
		{"unknown customer wins over bad days", CreateRentalInput{CustomerID: 9, GameID: 1, DaysRented: 0}, ErrInvalidReference},
		{"zero days", CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 0}, ErrInvalidInput},
		{"negative days", CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: -2}, ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, pub, _ := newTestService(t, 3, 1500)
			_, err := svc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.rentals)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreateWrapsInfrastructureErrors(t *testing.T) {
	svc, store, _, _ := newTestService(t, 3, 1500)
	boom := errors.New("connection reset")
	store.failCount = boom

	_, err := svc.Create(context.Background(), CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reason(err))
	assert.Empty(t, store.rentals)
}

func TestConcurrentCreatesNeverExceedStock(t *testing.T) {
	svc, store, _, _ := newTestService(t, 3, 1500)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, full := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrCapacityExceeded):
				full++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 17, full)
	assert.Equal(t, 3, store.openFor(1))
}

func TestReturnLateChargesDelayFee(t *testing.T) {
	svc, store, pub, clk := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 3})
	require.NoError(t, err)

	clk.advance(5 * 24 * time.Hour)
	out, err := svc.Return(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, out.DelayFee)
	assert.Equal(t, int64(20), *out.DelayFee)
	require.NotNil(t, out.ReturnDate)
	assert.Equal(t, day0.Add(5*24*time.Hour), *out.ReturnDate)
	assert.Equal(t, int64(30), out.OriginalPrice)

	stored := store.rentals[r.ID]
	assert.Equal(t, int64(20), *stored.DelayFee)
	assert.Equal(t, []string{queue.EventRentalCreated, queue.EventRentalReturned}, pub.types())
	assert.Equal(t, int64(20), *pub.events[1].DelayFee)
}

func TestReturnOnTimeHasNoFee(t *testing.T) {
	svc, _, _, clk := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 3})
	require.NoError(t, err)

	clk.advance(24 * time.Hour)
	out, err := svc.Return(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, out.DelayFee)
	assert.NotNil(t, out.ReturnDate)
}

func TestReturnUsesCurrentGamePrice(t *testing.T) {
	svc, store, _, clk := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)

	g := store.games[1]
	g.PricePerDay = 25
	store.games[1] = g
	clk.advance(3 * 24 * time.Hour)

	out, err := svc.Return(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), *out.DelayFee)
	assert.Equal(t, int64(10), out.OriginalPrice)
}

func TestReturnTwiceIsInvalidState(t *testing.T) {
	svc, store, _, clk := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)
	clk.advance(4 * 24 * time.Hour)
	first, err := svc.Return(ctx, r.ID)
	require.NoError(t, err)

	clk.advance(10 * 24 * time.Hour)
	_, err = svc.Return(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	stored := store.rentals[r.ID]
	assert.Equal(t, *first.ReturnDate, *stored.ReturnDate)
	assert.Equal(t, *first.DelayFee, *stored.DelayFee)
}

func TestReturnGuardedWriteLost(t *testing.T) {
	svc, store, pub, _ := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)
	store.forceStale = true

	_, err = svc.Return(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	err = svc.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, pub.events, 1)
}

func TestReturnAndDeleteUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t, 1, 10)
	ctx := context.Background()

	_, err := svc.Return(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 404), ErrNotFound)
}

func TestDeleteOpenFreesStock(t *testing.T) {
	svc, store, pub, _ := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, r.ID))
	assert.Empty(t, store.rentals)

	_, err = svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 2})
	assert.NoError(t, err)
	assert.Equal(t, []string{queue.EventRentalCreated, queue.EventRentalDeleted, queue.EventRentalCreated}, pub.types())
}

func TestDeleteReturnedIsInvalidState(t *testing.T) {
	svc, store, _, _ := newTestService(t, 1, 10)
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 2})
	require.NoError(t, err)
	_, err = svc.Return(ctx, r.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, r.ID), ErrInvalidState)
	assert.Contains(t, store.rentals, r.ID)
}

func TestPublishFailureIsNotSurfaced(t *testing.T) {
	svc, store, pub, _ := newTestService(t, 1, 10)
	log, hook := test.NewNullLogger()
	svc.log = log
	pub.err = errors.New("broker down")

	r, err := svc.Create(context.Background(), CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)
	assert.Contains(t, store.rentals, r.ID)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, queue.EventRentalCreated, entry.Data["event"])
}

func TestListNeverNil(t *testing.T) {
	svc, _, _, _ := newTestService(t, 1, 10)
	out, err := svc.List(context.Background(), repository.RentalFilter{CustomerID: 7}, repository.Page{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMetricsRejectsInvertedWindow(t *testing.T) {
	svc, _, _, _ := newTestService(t, 1, 10)
	from := day0
	to := day0.Add(-time.Hour)
	_, err := svc.Metrics(context.Background(), &from, &to)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSweepOverdue(t *testing.T) {
	svc, _, pub, clk := newTestService(t, 3, 10)
	ctx := context.Background()

	late, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 10})
	require.NoError(t, err)

	clk.advance(3 * 24 * time.Hour)
	n, err := svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, queue.EventRentalOverdue, last.Type)
	assert.Equal(t, late.ID, last.RentalID)
}

func TestTimestampsDropSubSecondPrecision(t *testing.T) {
	svc, store, _, clk := newTestService(t, 1, 10)
	ctx := context.Background()
	clk.t = time.Date(2024, 3, 1, 23, 59, 59, 600_000_000, time.UTC)

	r, err := svc.Create(ctx, CreateRentalInput{CustomerID: 1, GameID: 1, DaysRented: 1})
	require.NoError(t, err)
	want := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, want, r.RentDate)
	assert.Equal(t, want, store.rentals[r.ID].RentDate)

	clk.t = time.Date(2024, 3, 2, 10, 0, 0, 999_999_999, time.UTC)
	r, err = svc.Return(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, r.ReturnDate)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), *r.ReturnDate)
	assert.Nil(t, r.DelayFee)
}
