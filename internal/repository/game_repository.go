package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/boardcamp-api/internal/model"
)

// gameOrder lists the sort keys accepted by GET /games.
var gameOrder = map[string]string{
	"id":          "g.id",
	"name":        "g.name",
	"stockTotal":  "g.stock_total",
	"categoryId":  "g.category_id",
	"pricePerDay": "g.price_per_day",
}

// GameRepo manages persistence for games.
type GameRepo struct {
	db *sqlx.DB
}

// NewGameRepo returns a GameRepo bound to the given database.
func NewGameRepo(db *sqlx.DB) *GameRepo { return &GameRepo{db: db} }

// List returns games joined with their category name.  When name is not
// empty only games whose name starts with it (case-insensitive) are
// returned.
func (r *GameRepo) List(ctx context.Context, name string, p Page) ([]model.GameListing, error) {
	q := `SELECT g.id, g.name, g.image, g.stock_total, g.category_id, g.price_per_day,
	             c.name AS category_name
	      FROM games g
	      JOIN categories c ON c.id = g.category_id`
	args := []any{}
	if name != "" {
		q += ` WHERE LOWER(g.name) LIKE ?`
		args = append(args, likePrefix(name))
	}
	q += orderClause(gameOrder, p, "g.id")
	lim, limArgs := limitClause(p)
	out := []model.GameListing{}
	if err := r.db.SelectContext(ctx, &out, q+lim, append(args, limArgs...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a game by id or returns ErrNotFound.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (*model.Game, error) {
	const q = `SELECT id, name, image, stock_total, category_id, price_per_day FROM games WHERE id = ?`
	var g model.Game
	if err := r.db.GetContext(ctx, &g, q, id); err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// Create inserts a new game and populates its ID.  A duplicate name yields
// ErrConflict and an unknown category yields ErrInvalidReference.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	const q = `INSERT INTO games (name, image, stock_total, category_id, price_per_day) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, g.Name, g.Image, g.StockTotal, g.CategoryID, g.PricePerDay)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}
