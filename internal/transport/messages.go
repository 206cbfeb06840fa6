package transport

// IDRequest addresses a single record, by path on REST and by field on gRPC.
type IDRequest struct {
	ID string `json:"id" uri:"id"`
}

type PageRequest struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

type Empty struct{}
