// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/boardcamp-api/internal/model"
)

// RentalsQueue is the durable queue carrying rental lifecycle events.
const RentalsQueue = "rentals.events"

// Event types published on RentalsQueue.
const (
    EventRentalCreated  = "rental.created"
    EventRentalReturned = "rental.returned"
    EventRentalDeleted  = "rental.deleted"
    EventRentalOverdue  = "rental.overdue"
)

// RentalEvent is published after a rental changes state.  It carries enough
// of the rental for downstream consumers to log or notify without querying
// the primary database.
type RentalEvent struct {
    Type          string `json:"type"`
    RentalID      uint64 `json:"rental_id"`
    CustomerID    uint64 `json:"customer_id"`
    GameID        uint64 `json:"game_id"`
    DaysRented    int    `json:"days_rented"`
    OriginalPrice int64  `json:"original_price"`
    DelayFee      *int64 `json:"delay_fee"`
    OccurredAt    string `json:"occurred_at"`
}

// NewRentalEvent builds an event of the given type from a rental snapshot.
func NewRentalEvent(typ string, r model.Rental, at time.Time) RentalEvent {
    return RentalEvent{
        Type:          typ,
        RentalID:      r.ID,
        CustomerID:    r.CustomerID,
        GameID:        r.GameID,
        DaysRented:    r.DaysRented,
        OriginalPrice: r.OriginalPrice,
        DelayFee:      r.DelayFee,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}
