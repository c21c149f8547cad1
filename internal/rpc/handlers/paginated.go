package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/6529-Collections/salesnode/internal/db"
)

type PaginatedResponse[T any] struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int     `json:"total"`
	Prev     *string `json:"prev"`
	Next     *string `json:"next"`
	Data     []*T    `json:"data"`
}

// ReturnPaginatedData sets the total and builds absolute prev/next links from
// the request's scheme, host and path.
func (p *PaginatedResponse[T]) ReturnPaginatedData(r *http.Request, total int) {
	p.Total = total

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)

	if p.Page > 1 {
		prev := fmt.Sprintf("%s?page=%d&page_size=%d", baseURL, p.Page-1, p.PageSize)
		p.Prev = &prev
	} else {
		p.Prev = nil
	}

	offsetEnd := (p.Page-1)*p.PageSize + p.PageSize
	if offsetEnd < total {
		next := fmt.Sprintf("%s?page=%d&page_size=%d", baseURL, p.Page+1, p.PageSize)
		p.Next = &next
	} else {
		p.Next = nil
	}
}

// ExtractPagination reads page and page_size from the query string, falling
// back to 1 and 10. The parse error, if any, is returned alongside.
func ExtractPagination(r *http.Request) (int, int, error) {
	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		pageStr = "1"
	}
	pageSizeStr := r.URL.Query().Get("page_size")
	if pageSizeStr == "" {
		pageSizeStr = "10"
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	return page, pageSize, err
}

// ExtractDirection reads the optional sort=asc|desc parameter. Newest first is
// the default.
func ExtractDirection(r *http.Request) db.QueryDirection {
	if strings.EqualFold(r.URL.Query().Get("sort"), "asc") {
		return db.QueryDirectionAsc
	}
	return db.QueryDirectionDesc
}

func PaginatedQueryHandler[T any](r *http.Request, rq db.QueryRunner, pgQuerier db.PaginatedQuerier[T], query string, queryParams []interface{}) (PaginatedResponse[T], error) {
	page, pageSize, _ := ExtractPagination(r)
	queryOptions := db.QueryOptions{
		Where:     query,
		PageSize:  pageSize,
		Page:      page,
		Direction: ExtractDirection(r),
	}

	total, data, err := pgQuerier.GetPaginatedResponseForQuery(rq, queryOptions, queryParams)
	if err != nil {
		return PaginatedResponse[T]{}, err
	}

	resp := PaginatedResponse[T]{
		Page:     page,
		PageSize: pageSize,
		Data:     data,
	}
	resp.ReturnPaginatedData(r, total)

	return resp, nil
}
