package model

// Customer is a person allowed to rent games.  Birthday is formatted as
// YYYY-MM-DD and is nil when unknown.
type Customer struct {
    ID       uint64  `json:"id" db:"id"`             // customers.id
    Name     string  `json:"name" db:"name"`         // customers.name
    Phone    string  `json:"phone" db:"phone"`       // customers.phone (10-11 digits)
    CPF      string  `json:"cpf" db:"cpf"`           // customers.cpf (11 digits, unique)
    Birthday *string `json:"birthday" db:"birthday"` // customers.birthday (nullable)
}
