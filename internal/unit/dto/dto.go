package dto

type UnitFilters struct {
	Search   string // Matches name or abbreviation
	Page     int
	PageSize int
}
