// Package repository contains data access logic separated from HTTP handlers.
// This file holds category persistence.  Categories are referenced by games
// and are never updated or deleted through the API.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/boardcamp-api/internal/model"
)

// categoryOrder lists the sort keys accepted by GET /categories.
var categoryOrder = map[string]string{
	"id":   "id",
	"name": "name",
}

// CategoryRepo encapsulates all database queries related to categories.
type CategoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo constructs a CategoryRepo with the provided DB handle.
func NewCategoryRepo(db *sqlx.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns categories honouring the pagination and ordering in p.
func (r *CategoryRepo) List(ctx context.Context, p Page) ([]model.Category, error) {
	q := `SELECT id, name FROM categories` + orderClause(categoryOrder, p, "id")
	lim, args := limitClause(p)
	out := []model.Category{}
	if err := r.db.SelectContext(ctx, &out, q+lim, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new category and populates its ID.  A duplicate name
// yields ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	const q = `INSERT INTO categories (name) VALUES (?)`
	res, err := r.db.ExecContext(ctx, q, c.Name)
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

// Exists reports whether a category with the given id exists.
func (r *CategoryRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, id); err != nil {
		return false, err
	}
	return ok, nil
}
