package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Barcode       *string             `db:"barcode" json:"barcode"` // Nullable, unique when set
	Name          string              `db:"name" json:"name"`
	UserPrice     decimal.Decimal     `db:"user_price" json:"user_price"`
	UnitCost      decimal.NullDecimal `db:"unit_cost" json:"unit_cost"`
	MinStock      float64             `db:"min_stock" json:"min_stock"`
	UnitID        *string             `db:"unit_id" json:"unit_id"`
	CurrentAmount float64             `db:"current_amount" json:"current_amount"` // Sum of lot remaining quantities
}

func (p *Product) IsLowStock() bool {
	return p.CurrentAmount <= p.MinStock
}
