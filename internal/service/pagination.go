package service

import "github.com/stemsi/examprep-backend/internal/response"

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// pageBounds clamps paging input and returns page, perPage, limit and offset.
func pageBounds(page, perPage int) (int, int, int, int) {
	page = max(page, 1)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)
	return page, perPage, perPage, (page - 1) * perPage
}

func newPagination(page, perPage, total int) *response.Pagination {
	return response.NewPagination(page, perPage, total)
}
