package dto

import "time"

type SaleFilters struct {
	From     *time.Time // Inclusive
	To       *time.Time // Exclusive
	Debtor   string     // Substring of the debtor name on the sale's loan
	IsLoan   *bool
	Page     int
	PageSize int
}
