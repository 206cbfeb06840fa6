package dto

type LowStockFilters struct {
	Page     int
	PageSize int
}
