package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Name            string
	Barcode         string
	UserPrice       decimal.Decimal
	UnitCost        *decimal.Decimal
	MinStock        float64
	UnitID          string
	InitialQuantity float64 // Becomes the product's first lot when positive
}

type UpdateProductInput struct {
	ID        string
	Name      string
	Barcode   string
	UserPrice decimal.Decimal
	UnitCost  *decimal.Decimal
	MinStock  float64
	UnitID    string
}
