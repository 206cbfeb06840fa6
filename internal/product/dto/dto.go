package dto

type ProductFilters struct {
	UnitID      string
	SearchQuery string // For name and barcode search
	SortBy      string // name, user_price, current_amount, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
