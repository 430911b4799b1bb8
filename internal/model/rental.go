package model

import "time"

// Rental records a customer taking one copy of a game for a number of days.
// A rental is OPEN while ReturnDate is nil and RETURNED afterwards; the
// transition happens once and is terminal.
//
// Fields:
//  ID            – primary key identifier.
//  CustomerID    – customer who rented the game.
//  GameID        – game rented.
//  RentDate      – when the rental was created (UTC).
//  DaysRented    – agreed rental length in days.
//  ReturnDate    – when the game came back; nil while open.
//  OriginalPrice – DaysRented × price per day at creation, in cents.
//  DelayFee      – late fee in cents charged at return; nil when none.
type Rental struct {
    ID            uint64     `json:"id" db:"id"`                        // rentals.id
    CustomerID    uint64     `json:"customerId" db:"customer_id"`       // rentals.customer_id
    GameID        uint64     `json:"gameId" db:"game_id"`               // rentals.game_id
    RentDate      time.Time  `json:"rentDate" db:"rent_date"`           // rentals.rent_date
    DaysRented    int        `json:"daysRented" db:"days_rented"`       // rentals.days_rented
    ReturnDate    *time.Time `json:"returnDate" db:"return_date"`       // rentals.return_date (nullable)
    OriginalPrice int64      `json:"originalPrice" db:"original_price"` // rentals.original_price
    DelayFee      *int64     `json:"delayFee" db:"delay_fee"`           // rentals.delay_fee (nullable)
}

// IsOpen reports whether the rental has not been returned yet.
func (r *Rental) IsOpen() bool { return r.ReturnDate == nil }

// DueDate is the last day covered by the original price.
func (r *Rental) DueDate() time.Time {
    return r.RentDate.AddDate(0, 0, r.DaysRented)
}

// RentalCustomer is the customer projection embedded in rental listings.
type RentalCustomer struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// RentalGame is the game projection embedded in rental listings.
type RentalGame struct {
    ID           uint64 `json:"id"`
    Name         string `json:"name"`
    CategoryID   uint64 `json:"categoryId"`
    CategoryName string `json:"categoryName"`
}

// RentalDetail is a rental reshaped for listing: the joined customer and
// game columns are nested instead of flat.
type RentalDetail struct {
    Rental
    Customer RentalCustomer `json:"customer"`
    Game     RentalGame     `json:"game"`
}

// RentalMetrics summarises revenue over a set of rentals.  Amounts are in
// cents; Average is Revenue / Rentals truncated, zero when there are none.
type RentalMetrics struct {
    Revenue int64 `json:"revenue"`
    Rentals int64 `json:"rentals"`
    Average int64 `json:"average"`
}
