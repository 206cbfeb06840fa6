package dto

type CreateUnitInput struct {
	Name         string
	Abbreviation string
}

type UpdateUnitInput struct {
	ID           string
	Name         string
	Abbreviation string
}
