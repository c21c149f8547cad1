package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopQueryRunner struct{}

func (nopQueryRunner) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (nopQueryRunner) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

// recordingQuerier returns canned data and remembers what it was asked for.
type recordingQuerier[T any] struct {
	Total int
	Data  []*T
	Err   error

	Options db.QueryOptions
	Params  []interface{}
}

func (m *recordingQuerier[T]) GetPaginatedResponseForQuery(rq db.QueryRunner, queryOptions db.QueryOptions, queryParams []interface{}) (int, []*T, error) {
	m.Options = queryOptions
	m.Params = queryParams
	if m.Err != nil {
		return 0, nil, m.Err
	}
	return m.Total, m.Data, nil
}

func strPtr(s string) *string {
	return &s
}

func TestReturnPaginatedData(t *testing.T) {
	t.Run("first page has only next", func(t *testing.T) {
		resp := PaginatedResponse[string]{Page: 1, PageSize: 10}
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/sales", nil)
		resp.ReturnPaginatedData(req, 25)

		assert.Nil(t, resp.Prev)
		require.NotNil(t, resp.Next)
		assert.Equal(t, "http://example.com/api/v1/sales?page=2&page_size=10", *resp.Next)
		assert.Equal(t, 25, resp.Total)
	})

	t.Run("last page over tls has only prev", func(t *testing.T) {
		resp := PaginatedResponse[string]{Page: 3, PageSize: 10}
		req := httptest.NewRequest(http.MethodGet, "https://example.com/api/v1/sales", nil)
		resp.ReturnPaginatedData(req, 25)

		require.NotNil(t, resp.Prev)
		assert.Equal(t, "https://example.com/api/v1/sales?page=2&page_size=10", *resp.Prev)
		assert.Nil(t, resp.Next)
	})

	t.Run("exact fit has no next", func(t *testing.T) {
		resp := PaginatedResponse[string]{Page: 2, PageSize: 10}
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/sales", nil)
		resp.ReturnPaginatedData(req, 20)
		assert.NotNil(t, resp.Prev)
		assert.Nil(t, resp.Next)
	})
}

func TestExtractPagination(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantPage     int
		wantPageSize int
		wantErr      bool
	}{
		{"explicit", "http://example.com?page=3&page_size=15", 3, 15, false},
		{"defaults", "http://example.com", 1, 10, false},
		{"zero and negative", "http://example.com?page=0&page_size=-4", 1, 10, false},
		{"garbage", "http://example.com?page=abc&page_size=xyz", 1, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize, err := ExtractPagination(httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractDirection(t *testing.T) {
	assert.Equal(t, db.QueryDirectionDesc, ExtractDirection(httptest.NewRequest(http.MethodGet, "/x", nil)))
	assert.Equal(t, db.QueryDirectionAsc, ExtractDirection(httptest.NewRequest(http.MethodGet, "/x?sort=ASC", nil)))
	assert.Equal(t, db.QueryDirectionDesc, ExtractDirection(httptest.NewRequest(http.MethodGet, "/x?sort=sideways", nil)))
}

func TestPaginatedQueryHandler(t *testing.T) {
	t.Run("passes options through and builds links", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/sales?page=2&page_size=5&sort=asc", nil)
		querier := &recordingQuerier[string]{
			Total: 30,
			Data:  []*string{strPtr("first"), strPtr("second")},
		}

		resp, err := PaginatedQueryHandler[string](req, nopQueryRunner{}, querier, "tx_hash = ?", []interface{}{"0xabc"})
		require.NoError(t, err)

		assert.Equal(t, db.QueryOptions{Where: "tx_hash = ?", Page: 2, PageSize: 5, Direction: db.QueryDirectionAsc}, querier.Options)
		assert.Equal(t, []interface{}{"0xabc"}, querier.Params)
		assert.Equal(t, 2, resp.Page)
		assert.Equal(t, 5, resp.PageSize)
		assert.Equal(t, 30, resp.Total)
		assert.Len(t, resp.Data, 2)
		assert.NotNil(t, resp.Prev)
		assert.NotNil(t, resp.Next)
	})

	t.Run("querier error yields zero response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		querier := &recordingQuerier[string]{Err: errors.New("some DB error")}

		resp, err := PaginatedQueryHandler[string](req, nopQueryRunner{}, querier, "", nil)
		assert.EqualError(t, err, "some DB error")
		assert.Equal(t, PaginatedResponse[string]{}, resp)
	})
}

func TestPaginatedResponse_JSON(t *testing.T) {
	resp := PaginatedResponse[string]{
		Page:     1,
		PageSize: 2,
		Total:    3,
		Next:     strPtr("next-link"),
		Data:     []*string{strPtr("foo"), strPtr("bar")},
	}
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":1,"page_size":2,"total":3,"prev":null,"next":"next-link","data":["foo","bar"]}`, string(b))
}
