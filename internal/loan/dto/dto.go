package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

type LoanFilters struct {
	Statuses []model.LoanStatus // Any of; empty means all
	Search   string             // Case-insensitive substring of debtor name or phone
	Page     int
	PageSize int
}
