package domain

import "github.com/shopspring/decimal"

type MenuItem struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	Category  string          `json:"category" yaml:"category"`
	Available bool            `json:"available" yaml:"available"`
}
