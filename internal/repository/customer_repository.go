package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/boardcamp-api/internal/model"
)

// customerOrder lists the sort keys accepted by GET /customers.
var customerOrder = map[string]string{
	"id":       "id",
	"name":     "name",
	"cpf":      "cpf",
	"birthday": "birthday",
}

// customerColumns selects a customer row with the birthday rendered as
// YYYY-MM-DD so it round-trips through the API unchanged.
const customerColumns = `id, name, phone, cpf, DATE_FORMAT(birthday, '%Y-%m-%d') AS birthday`

// CustomerRepo manages persistence for customers.
type CustomerRepo struct {
	db *sqlx.DB
}

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// List returns customers, optionally restricted to those whose CPF starts
// with cpf.
func (r *CustomerRepo) List(ctx context.Context, cpf string, p Page) ([]model.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers`
	args := []any{}
	if cpf != "" {
		q += ` WHERE cpf LIKE ?`
		args = append(args, likePrefix(cpf))
	}
	q += orderClause(customerOrder, p, "id")
	lim, limArgs := limitClause(p)
	out := []model.Customer{}
	if err := r.db.SelectContext(ctx, &out, q+lim, append(args, limArgs...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a customer by id or returns ErrNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	var c model.Customer
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Create inserts a new customer and populates its ID.  A duplicate CPF
// yields ErrConflict.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	const q = `INSERT INTO customers (name, phone, cpf, birthday) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Phone, c.CPF, c.Birthday)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update replaces every mutable field of the customer identified by c.ID.
// It returns ErrNotFound when the customer does not exist and ErrConflict
// when the new CPF belongs to someone else.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	const q = `UPDATE customers SET name = ?, phone = ?, cpf = ?, birthday = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, c.Name, c.Phone, c.CPF, c.Birthday, c.ID); err != nil {
		return translate(err)
	}
	// RowsAffected is 0 both for a missing row and for an unchanged one, so
	// existence is checked explicitly.
	const exists = `SELECT EXISTS(SELECT 1 FROM customers WHERE id = ?)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, exists, c.ID); err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
