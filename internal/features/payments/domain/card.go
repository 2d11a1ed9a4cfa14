package domain

import "fmt"

// CardInstrument is raw card data. It only lives for the duration of a tokenization call
// and formats itself redacted so it cannot leak into logs.
type CardInstrument struct {
	Number     string `json:"number" validate:"required,luhn"`
	CVC        string `json:"cvc" validate:"required,numeric,min=3,max=4"`
	ExpMonth   string `json:"exp_month" validate:"required,numeric,len=2"`
	ExpYear    string `json:"exp_year" validate:"required,numeric,len=2"`
	CardHolder string `json:"card_holder" validate:"required,min=5,max=100"`
}

// LastFour returns the last four digits of the card number.
func (c CardInstrument) LastFour() string {
	digits := make([]rune, 0, len(c.Number))
	for _, r := range c.Number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

func (c CardInstrument) String() string {
	return fmt.Sprintf("card ****%s", c.LastFour())
}

func (c CardInstrument) GoString() string {
	return c.String()
}
