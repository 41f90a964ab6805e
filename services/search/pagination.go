package search

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
	TotalResults int  `json:"total_results"`
}

func calculatePagination(total, page, pageSize int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize

	return Pagination{
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
		TotalResults: total,
	}
}
