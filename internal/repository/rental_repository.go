package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/boardcamp-api/internal/model"
)

// RentalQueries is the set of row-level operations the rental engine runs
// inside a single transaction.  The SQL implementation takes row locks on
// the rows it reads so that check-then-act sequences hold under concurrent
// requests.
type RentalQueries interface {
	FindCustomerByID(ctx context.Context, id uint64) (*model.Customer, error)
	FindGameByID(ctx context.Context, id uint64) (*model.Game, error)
	FindGameByIDForUpdate(ctx context.Context, id uint64) (*model.Game, error)
	CountOpenRentalsForGame(ctx context.Context, gameID uint64) (int, error)
	InsertRental(ctx context.Context, r *model.Rental) error
	FindRentalByIDForUpdate(ctx context.Context, id uint64) (*model.Rental, error)
	UpdateRentalReturn(ctx context.Context, id uint64, returnDate time.Time, delayFee *int64) (bool, error)
	DeleteOpenRental(ctx context.Context, id uint64) (bool, error)
}

// RentalFilter narrows GET /rentals.  Zero values disable a filter.
// Status accepts "open" or "closed"; anything else is ignored.
type RentalFilter struct {
	CustomerID uint64
	GameID     uint64
	Status     string
	StartDate  *time.Time
}

// rentalOrder lists the sort keys accepted by GET /rentals.  "name" sorts
// by game name.
var rentalOrder = map[string]string{
	"id":         "r.id",
	"customerId": "r.customer_id",
	"gameId":     "r.game_id",
	"name":       "g.name",
	"daysRented": "r.days_rented",
}

const rentalColumns = `id, customer_id, game_id, rent_date, days_rented, return_date, original_price, delay_fee`

// RentalRepo provides persistence for rentals.  Mutations go through RunInTx
// so that every lifecycle rule is checked and applied atomically.  All
// timestamps are stored in UTC.
type RentalRepo struct {
	db *sqlx.DB
}

// NewRentalRepo returns a new RentalRepo bound to the given database.
func NewRentalRepo(db *sqlx.DB) *RentalRepo { return &RentalRepo{db: db} }

// RunInTx executes fn inside a database transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise; fn's error is
// returned unchanged so callers can match sentinel values.
func (r *RentalRepo) RunInTx(ctx context.Context, fn func(q RentalQueries) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&rentalTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rentalTx implements RentalQueries on top of an open transaction.
type rentalTx struct {
	tx *sqlx.Tx
}

func (t *rentalTx) FindCustomerByID(ctx context.Context, id uint64) (*model.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	var c model.Customer
	if err := t.tx.GetContext(ctx, &c, q, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (t *rentalTx) FindGameByID(ctx context.Context, id uint64) (*model.Game, error) {
	const q = `SELECT id, name, image, stock_total, category_id, price_per_day FROM games WHERE id = ?`
	var g model.Game
	if err := t.tx.GetContext(ctx, &g, q, id); err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// FindGameByIDForUpdate locks the game row; concurrent rental creations for
// the same game queue behind it until the transaction ends.
func (t *rentalTx) FindGameByIDForUpdate(ctx context.Context, id uint64) (*model.Game, error) {
	const q = `SELECT id, name, image, stock_total, category_id, price_per_day FROM games WHERE id = ? FOR UPDATE`
	var g model.Game
	if err := t.tx.GetContext(ctx, &g, q, id); err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// CountOpenRentalsForGame uses a locking read so the count reflects rows
// committed after the transaction's snapshot was taken.
func (t *rentalTx) CountOpenRentalsForGame(ctx context.Context, gameID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rentals WHERE game_id = ? AND return_date IS NULL FOR UPDATE`
	var n int
	if err := t.tx.GetContext(ctx, &n, q, gameID); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *rentalTx) InsertRental(ctx context.Context, r *model.Rental) error {
	const q = `INSERT INTO rentals (customer_id, game_id, rent_date, days_rented, original_price)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, r.CustomerID, r.GameID, r.RentDate, r.DaysRented, r.OriginalPrice)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

func (t *rentalTx) FindRentalByIDForUpdate(ctx context.Context, id uint64) (*model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = ? FOR UPDATE`
	var r model.Rental
	if err := t.tx.GetContext(ctx, &r, q, id); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// UpdateRentalReturn closes an open rental.  The write is guarded by
// return_date IS NULL; applied is false when the rental was already
// returned (or does not exist).
func (t *rentalTx) UpdateRentalReturn(ctx context.Context, id uint64, returnDate time.Time, delayFee *int64) (bool, error) {
	const q = `UPDATE rentals SET return_date = ?, delay_fee = ? WHERE id = ? AND return_date IS NULL`
	res, err := t.tx.ExecContext(ctx, q, returnDate, delayFee, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteOpenRental removes a rental only while it is open.
func (t *rentalTx) DeleteOpenRental(ctx context.Context, id uint64) (bool, error) {
	const q = `DELETE FROM rentals WHERE id = ? AND return_date IS NULL`
	res, err := t.tx.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// rentalRow is the flat shape of the listing join before it is reshaped
// into model.RentalDetail.
type rentalRow struct {
	model.Rental
	CustomerName string `db:"customer_name"`
	GameName     string `db:"game_name"`
	CategoryID   uint64 `db:"category_id"`
	CategoryName string `db:"category_name"`
}

func (row rentalRow) detail() model.RentalDetail {
	return model.RentalDetail{
		Rental:   row.Rental,
		Customer: model.RentalCustomer{ID: row.CustomerID, Name: row.CustomerName},
		Game: model.RentalGame{
			ID:           row.GameID,
			Name:         row.GameName,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
		},
	}
}

// List returns rentals joined with customer, game and category names.
// When nothing matches an empty slice is returned.
func (r *RentalRepo) List(ctx context.Context, f RentalFilter, p Page) ([]model.RentalDetail, error) {
	where := []string{}
	args := []any{}
	if f.CustomerID != 0 {
		where = append(where, "r.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.GameID != 0 {
		where = append(where, "r.game_id = ?")
		args = append(args, f.GameID)
	}
	switch strings.ToLower(f.Status) {
	case "open":
		where = append(where, "r.return_date IS NULL")
	case "closed":
		where = append(where, "r.return_date IS NOT NULL")
	}
	if f.StartDate != nil {
		where = append(where, "r.rent_date >= ?")
		args = append(args, f.StartDate.UTC())
	}

	q := `SELECT r.id, r.customer_id, r.game_id, r.rent_date, r.days_rented, r.return_date,
	             r.original_price, r.delay_fee,
	             cu.name AS customer_name,
	             g.name  AS game_name,
	             g.category_id,
	             ca.name AS category_name
	      FROM rentals r
	      JOIN customers  cu ON cu.id = r.customer_id
	      JOIN games      g  ON g.id  = r.game_id
	      JOIN categories ca ON ca.id = g.category_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += orderClause(rentalOrder, p, "r.id")
	lim, limArgs := limitClause(p)

	var rows []rentalRow
	if err := r.db.SelectContext(ctx, &rows, q+lim, append(args, limArgs...)...); err != nil {
		return nil, err
	}
	out := make([]model.RentalDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.detail())
	}
	return out, nil
}

// Metrics sums revenue over rentals whose rent_date lies in [from, to).
// Either bound may be nil.
func (r *RentalRepo) Metrics(ctx context.Context, from, to *time.Time) (model.RentalMetrics, error) {
	where := []string{}
	args := []any{}
	if from != nil {
		where = append(where, "rent_date >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		where = append(where, "rent_date < ?")
		args = append(args, to.UTC())
	}
	q := `SELECT COUNT(*) AS rentals,
	             COALESCE(SUM(original_price), 0) + COALESCE(SUM(delay_fee), 0) AS revenue
	      FROM rentals`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	var m model.RentalMetrics
	row := r.db.QueryRowxContext(ctx, q, args...)
	if err := row.Scan(&m.Rentals, &m.Revenue); err != nil {
		return model.RentalMetrics{}, err
	}
	if m.Rentals > 0 {
		m.Average = m.Revenue / m.Rentals
	}
	return m, nil
}

// ListOverdue returns open rentals whose paid period ended before now.
func (r *RentalRepo) ListOverdue(ctx context.Context, now time.Time) ([]model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals
	           WHERE return_date IS NULL
	             AND DATE_ADD(rent_date, INTERVAL days_rented DAY) < ?
	           ORDER BY rent_date`
	out := []model.Rental{}
	if err := r.db.SelectContext(ctx, &out, q, now.UTC()); err != nil {
		return nil, err
	}
	return out, nil
}
