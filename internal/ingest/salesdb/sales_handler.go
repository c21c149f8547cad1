package salesdb

import (
	"context"
	"database/sql"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"go.uber.org/zap"
)

// SalesHandler persists emitted sale events. Failures are logged and not
// retried; the writes are idempotent so a later replay closes any gap.
type SalesHandler struct {
	ctx     context.Context
	db      *sql.DB
	salesDb SalesDb
}

func NewSalesHandler(ctx context.Context, sqlite *sql.DB) *SalesHandler {
	return &SalesHandler{ctx: ctx, db: sqlite, salesDb: NewSalesDb()}
}

// StoreSaleEvent writes every sale of the event in one transaction and returns
// how many were new.
func (h *SalesHandler) StoreSaleEvent(ctx context.Context, event models.SaleEvent) (int, error) {
	return db.TxRunner(ctx, h.db, func(tx *sql.Tx) (int, error) {
		stored := 0
		for _, sale := range event.Sales {
			collectionInserted, nftInserted, err := h.salesDb.StoreSale(tx, sale)
			if err != nil {
				return 0, err
			}
			if collectionInserted || nftInserted {
				stored++
			}
		}
		return stored, nil
	})
}

func (h *SalesHandler) OnSale(event models.SaleEvent) {
	if len(event.Sales) == 0 {
		return
	}
	stored, err := h.StoreSaleEvent(h.ctx, event)
	if err != nil {
		zap.L().Error("Failed to persist sales",
			zap.String("txHash", event.Sales[0].TxHash),
			zap.Error(err),
		)
		return
	}
	zap.L().Debug("Persisted sales",
		zap.String("txHash", event.Sales[0].TxHash),
		zap.Int("new", stored),
		zap.Int("total", len(event.Sales)),
	)
}
