package salesdb

import (
	"database/sql"
	"fmt"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
)

/*
Every sale is written twice, under its dedup key (NftSale.DocID):

 1. collection_sales  PK (chain_id, collection_address, id)
 2. nft_sales         PK (chain_id, collection_address, token_id, id)

Writes use INSERT OR IGNORE so an existing record is never overwritten.
*/

// StoredSale is a persisted sale row.
type StoredSale struct {
	ID string `json:"id"`
	models.NftSale
	Aggregated bool `json:"aggregated"`
}

func (s *StoredSale) ScanRow(scanner db.RowScanner) error {
	return scanner.Scan(
		&s.ID, &s.ChainID, &s.CollectionAddress, &s.TokenID, &s.TxHash,
		&s.BlockNumber, &s.Timestamp, &s.Price, &s.PaymentToken, &s.Quantity,
		&s.Buyer, &s.Seller, &s.Source, &s.TokenStandard, &s.Aggregated,
	)
}

type SalesDb interface {
	// StoreSale reports whether the sale was new to each table.
	StoreSale(tx *sql.Tx, sale models.NftSale) (collectionInserted, nftInserted bool, err error)
	GetSaleByID(rq db.QueryRunner, id string) (*StoredSale, error)

	GetPaginatedResponseForQuery(rq db.QueryRunner, queryOptions db.QueryOptions, queryParams []interface{}) (total int, sales []*StoredSale, err error)
}

func NewSalesDb() SalesDb {
	return &SalesDbImpl{}
}

type SalesDbImpl struct{}

const saleColumns = `id, chain_id, collection_address, token_id, tx_hash,
	block_number, timestamp_ms, price, payment_token, quantity,
	buyer, seller, source, token_standard, aggregated`

const allSalesQuery = `SELECT ` + saleColumns + ` FROM collection_sales`

var salesOrderColumns = []string{"block_number", "tx_hash", "collection_address", "token_id"}

func insertSaleQuery(table string) string {
	return fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, saleColumns)
}

func (s *SalesDbImpl) StoreSale(tx *sql.Tx, sale models.NftSale) (bool, bool, error) {
	id := sale.DocID()
	args := []interface{}{
		id, sale.ChainID, sale.CollectionAddress, sale.TokenID, sale.TxHash,
		sale.BlockNumber, sale.Timestamp, sale.Price, sale.PaymentToken, sale.Quantity,
		sale.Buyer, sale.Seller, sale.Source, sale.TokenStandard, false,
	}

	res, err := tx.Exec(insertSaleQuery("collection_sales"), args...)
	if err != nil {
		return false, false, fmt.Errorf("failed to insert collection sale: %w", err)
	}
	collectionRows, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}

	res, err = tx.Exec(insertSaleQuery("nft_sales"), args...)
	if err != nil {
		return false, false, fmt.Errorf("failed to insert nft sale: %w", err)
	}
	nftRows, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}

	return collectionRows > 0, nftRows > 0, nil
}

func (s *SalesDbImpl) GetSaleByID(rq db.QueryRunner, id string) (*StoredSale, error) {
	var sale StoredSale
	err := sale.ScanRow(rq.QueryRow(allSalesQuery+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *SalesDbImpl) GetPaginatedResponseForQuery(rq db.QueryRunner, queryOptions db.QueryOptions, queryParams []interface{}) (int, []*StoredSale, error) {
	return db.GetPaginatedResponseForQuery(
		"collection_sales",
		rq,
		allSalesQuery,
		queryOptions,
		salesOrderColumns,
		queryParams,
		func() *StoredSale { return &StoredSale{} },
	)
}
