package model

// Unit is a unit of measurement products are sold in (piece, kg, litre...).
type Unit struct {
	BaseModel
	Name         string `db:"name" json:"name"`
	Abbreviation string `db:"abbreviation" json:"abbreviation"`
}
