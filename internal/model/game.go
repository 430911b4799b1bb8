package model

// Game is a rentable title with a fixed number of physical copies.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique title.
//  Image       – URI of the cover image (may be empty).
//  StockTotal  – copies owned; bounds the number of open rentals.
//  CategoryID  – category the game belongs to.
//  PricePerDay – rental price per day in cents.
type Game struct {
    ID          uint64 `json:"id" db:"id"`                     // games.id
    Name        string `json:"name" db:"name"`                 // games.name
    Image       string `json:"image" db:"image"`               // games.image
    StockTotal  int    `json:"stockTotal" db:"stock_total"`    // games.stock_total
    CategoryID  uint64 `json:"categoryId" db:"category_id"`    // games.category_id
    PricePerDay int64  `json:"pricePerDay" db:"price_per_day"` // games.price_per_day
}

// GameListing is a game row enriched with its category name for catalogue
// listings.
type GameListing struct {
    Game
    CategoryName string `json:"categoryName" db:"category_name"`
}
