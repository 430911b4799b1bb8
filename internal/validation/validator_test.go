package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type customerBody struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required,phone"`
	CPF      string `json:"cpf" validate:"required,cpf"`
	Birthday string `json:"birthday" validate:"notfuture"`
}

type gameBody struct {
	Name        string `json:"name" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
	StockTotal  int    `json:"stockTotal" validate:"gte=1"`
	PricePerDay int64  `json:"pricePerDay" validate:"gte=1"`
}

func fixed(v *Validator) *Validator {
	v.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return v
}

func TestCustomerRules(t *testing.T) {
	v := fixed(New())
	ok := customerBody{Name: "João Alfredo", Phone: "21998899222", CPF: "01234567890", Birthday: "1992-10-05"}
	assert.NoError(t, v.Validate(ok))

	noBirthday := ok
	noBirthday.Birthday = ""
	assert.NoError(t, v.Validate(noBirthday))

	tests := []struct {
		name   string
		mutate func(*customerBody)
		msg    string
	}{
		{"missing name", func(b *customerBody) { b.Name = "" }, "name is required"},
		{"short cpf", func(b *customerBody) { b.CPF = "123" }, "cpf must have exactly 11 digits"},
		{"letters in cpf", func(b *customerBody) { b.CPF = "0123456789a" }, "cpf must have exactly 11 digits"},
		{"short phone", func(b *customerBody) { b.Phone = "123456789" }, "phone must have 10 or 11 digits"},
		{"future birthday", func(b *customerBody) { b.Birthday = "2030-01-01" }, "birthday must be a past date in YYYY-MM-DD format"},
		{"bad birthday format", func(b *customerBody) { b.Birthday = "05/10/1992" }, "birthday must be a past date in YYYY-MM-DD format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := ok
			tc.mutate(&b)
			err := v.Validate(b)
			if assert.Error(t, err) {
				assert.Equal(t, tc.msg, err.Error())
			}
		})
	}
}

func TestGameRules(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(gameBody{Name: "Banco Imobiliário", StockTotal: 3, PricePerDay: 1500}))
	assert.NoError(t, v.Validate(gameBody{Name: "Detetive", Image: "http://example.com/d.png", StockTotal: 1, PricePerDay: 1}))

	err := v.Validate(gameBody{Name: "X", StockTotal: 0, PricePerDay: 1500})
	if assert.Error(t, err) {
		assert.Equal(t, "stockTotal must be at least 1", err.Error())
	}
	err = v.Validate(gameBody{Name: "X", Image: "not a url", StockTotal: 1, PricePerDay: 1})
	if assert.Error(t, err) {
		assert.Equal(t, "image must be a valid URL", err.Error())
	}
}
