package handlers

import (
	"database/sql"
	"net/http"
	"regexp"
	"strings"

	"github.com/6529-Collections/salesnode/internal/ingest/salesdb"
)

var salesDb salesdb.SalesDb = salesdb.NewSalesDb()
var PaginatedSalesQueryHandlerFunc = PaginatedQueryHandler[salesdb.StoredSale]

var (
	txHashRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tokenIDRegex = regexp.MustCompile(`^[0-9]+$`)
	saleIDRegex  = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// SalesGetHandler serves
//
//	/api/v1/sales
//	/api/v1/sales/{txHash}
//	/api/v1/sales/{collection}
//	/api/v1/sales/{collection}/{tokenId}
//
// with optional chain_id, buyer and seller query filters.
func SalesGetHandler(r *http.Request, db *sql.DB) (interface{}, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	var conditions []string
	var queryParams []interface{}

	if len(parts) > 3 {
		segment := strings.ToLower(parts[3])
		switch {
		case txHashRegex.MatchString(segment):
			if len(parts) > 4 {
				return nil, NotFound("unknown sales path")
			}
			conditions = append(conditions, "tx_hash = ?")
			queryParams = append(queryParams, segment)
		case addressRegex.MatchString(segment):
			conditions = append(conditions, "collection_address = ?")
			queryParams = append(queryParams, segment)
		default:
			return nil, BadRequest("expected a collection address or transaction hash")
		}
	}
	if len(parts) > 4 {
		if !tokenIDRegex.MatchString(parts[4]) {
			return nil, BadRequest("token id must be a decimal integer")
		}
		conditions = append(conditions, "token_id = ?")
		queryParams = append(queryParams, parts[4])
	}
	if len(parts) > 5 {
		return nil, NotFound("unknown sales path")
	}

	q := r.URL.Query()
	if chainID := q.Get("chain_id"); chainID != "" {
		conditions = append(conditions, "chain_id = ?")
		queryParams = append(queryParams, chainID)
	}
	for _, party := range []string{"buyer", "seller"} {
		v := strings.ToLower(q.Get(party))
		if v == "" {
			continue
		}
		if !addressRegex.MatchString(v) {
			return nil, BadRequest(party + " must be an address")
		}
		conditions = append(conditions, party+" = ?")
		queryParams = append(queryParams, v)
	}

	return PaginatedSalesQueryHandlerFunc(r, db, salesDb, strings.Join(conditions, " AND "), queryParams)
}

// SaleGetHandler serves /api/v1/sale/{id}, where id is the sale's dedup key.
func SaleGetHandler(r *http.Request, db *sql.DB) (interface{}, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || !saleIDRegex.MatchString(strings.ToLower(parts[3])) {
		return nil, NotFound("sale not found")
	}

	sale, err := salesDb.GetSaleByID(db, strings.ToLower(parts[3]))
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, NotFound("sale not found")
	}
	return sale, nil
}
