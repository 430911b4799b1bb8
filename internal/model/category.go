package model

// Category groups games (e.g. "Estratégia", "Investigação").
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique display name.
type Category struct {
    ID   uint64 `json:"id" db:"id"`     // categories.id
    Name string `json:"name" db:"name"` // categories.name
}
