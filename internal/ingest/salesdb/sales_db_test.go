package salesdb

import (
	"context"
	"errors"
	"testing"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/6529-Collections/salesnode/internal/db/testdb"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSale(tokenID string, block uint64) models.NftSale {
	return models.NftSale{
		ChainID:           models.ChainMainnet,
		TxHash:            "0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		BlockNumber:       block,
		Timestamp:         1645000000000,
		CollectionAddress: "0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb",
		TokenID:           tokenID,
		Price:             0.5,
		PaymentToken:      "0x0000000000000000000000000000000000000000",
		Buyer:             "0x1111111111111111111111111111111111111111",
		Seller:            "0x2222222222222222222222222222222222222222",
		Quantity:          1,
		Source:            models.SourceOpenSea,
		TokenStandard:     models.ERC721,
	}
}

func countRows(t *testing.T, rq db.QueryRunner, table string) int {
	var n int
	require.NoError(t, rq.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSalesHandler_StoreSaleEvent(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	handler := NewSalesHandler(context.Background(), sqlite)
	event := models.SaleEvent{Sales: []models.NftSale{testSale("1", 100), testSale("2", 100)}, TotalPrice: 1}

	stored, err := handler.StoreSaleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Equal(t, 2, countRows(t, sqlite, "collection_sales"))
	assert.Equal(t, 2, countRows(t, sqlite, "nft_sales"))

	sale, err := NewSalesDb().GetSaleByID(sqlite, testSale("1", 100).DocID())
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, testSale("1", 100), sale.NftSale)
	assert.False(t, sale.Aggregated)
}

func TestSalesHandler_PersistingTwiceKeepsOneRecord(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	handler := NewSalesHandler(context.Background(), sqlite)
	event := models.SaleEvent{Sales: []models.NftSale{testSale("1", 100)}, TotalPrice: 0.5}

	handler.OnSale(event)

	duplicate := testSale("1", 100)
	duplicate.Price = 99
	stored, err := handler.StoreSaleEvent(context.Background(), models.SaleEvent{Sales: []models.NftSale{duplicate}})
	require.NoError(t, err)
	assert.Equal(t, 0, stored)

	assert.Equal(t, 1, countRows(t, sqlite, "collection_sales"))
	assert.Equal(t, 1, countRows(t, sqlite, "nft_sales"))

	sale, err := NewSalesDb().GetSaleByID(sqlite, duplicate.DocID())
	require.NoError(t, err)
	assert.Equal(t, 0.5, sale.Price, "existing record must not be overwritten")
}

func TestSalesDb_GetSaleByID_Missing(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	sale, err := NewSalesDb().GetSaleByID(sqlite, "nope")
	require.NoError(t, err)
	assert.Nil(t, sale)
}

func TestSalesDb_GetPaginatedResponseForQuery(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	handler := NewSalesHandler(context.Background(), sqlite)
	var sales []models.NftSale
	for i := 0; i < 5; i++ {
		sales = append(sales, testSale(string(rune('1'+i)), uint64(100+i)))
	}
	other := testSale("9", 50)
	other.CollectionAddress = "0x495f947276749ce646f68ac8c248420045cb7b5e"
	sales = append(sales, other)
	_, err := handler.StoreSaleEvent(context.Background(), models.SaleEvent{Sales: sales})
	require.NoError(t, err)

	salesDb := NewSalesDb()
	total, page, err := salesDb.GetPaginatedResponseForQuery(sqlite, db.QueryOptions{
		Where:    "collection_address = ?",
		Page:     1,
		PageSize: 2,
	}, []interface{}{"0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(104), page[0].BlockNumber)
	assert.Equal(t, uint64(103), page[1].BlockNumber)

	total, page, err = salesDb.GetPaginatedResponseForQuery(sqlite, db.QueryOptions{
		Page:      1,
		PageSize:  10,
		Direction: db.QueryDirectionAsc,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, "9", page[0].TokenID)
}

func TestSalesHandler_RollsBackOnError(t *testing.T) {
	sqlite, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlite.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO collection_sales").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO nft_sales").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	handler := NewSalesHandler(context.Background(), sqlite)
	_, err = handler.StoreSaleEvent(context.Background(), models.SaleEvent{Sales: []models.NftSale{testSale("1", 1)}})
	assert.ErrorContains(t, err, "disk full")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesHandler_OnSaleLogsFailure(t *testing.T) {
	sqlite, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlite.Close()

	mock.ExpectBegin().WillReturnError(errors.New("db locked"))

	handler := NewSalesHandler(context.Background(), sqlite)
	assert.NotPanics(t, func() {
		handler.OnSale(models.SaleEvent{Sales: []models.NftSale{testSale("1", 1)}})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesHandler_OnSaleIgnoresEmptyEvent(t *testing.T) {
	sqlite, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlite.Close()

	NewSalesHandler(context.Background(), sqlite).OnSale(models.SaleEvent{})
	assert.NoError(t, mock.ExpectationsWereMet())
}
