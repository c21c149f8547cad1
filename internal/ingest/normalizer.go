package ingest

import (
	"fmt"
	"math/big"

	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"github.com/6529-Collections/salesnode/pkg/stringtools"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"go.uber.org/zap"
)

// Normalizer keeps ETH and WETH denominated sales and prices them per unit.
type Normalizer struct {
	weth string
	null string
}

func NewNormalizer(weth, null common.Address) *Normalizer {
	return &Normalizer{
		weth: stringtools.TrimLowerCase(weth.Hex()),
		null: stringtools.TrimLowerCase(null.Hex()),
	}
}

// Accepts reports whether token is ether (the null address) or WETH.
func (n *Normalizer) Accepts(token string) bool {
	return stringtools.EqualFoldTrimmed(token, n.null) || stringtools.EqualFoldTrimmed(token, n.weth)
}

// Normalize never fails: sales paid in other tokens and malformed input both
// produce an empty event.
func (n *Normalizer) Normalize(sales []models.PreParsedSale) models.SaleEvent {
	if len(sales) == 0 {
		return models.SaleEvent{}
	}
	if !n.Accepts(sales[0].PaymentToken) {
		return models.SaleEvent{}
	}
	paymentToken := stringtools.TrimLowerCase(sales[0].PaymentToken)

	event, err := n.normalize(sales, paymentToken)
	if err != nil {
		zap.L().Error("Failed to normalize sales",
			zap.String("txHash", sales[0].TxHash),
			zap.Error(err),
		)
		return models.SaleEvent{}
	}
	return event
}

func (n *Normalizer) normalize(sales []models.PreParsedSale, paymentToken string) (models.SaleEvent, error) {
	if sales[0].PriceWei == nil || sales[0].PriceWei.Sign() < 0 {
		return models.SaleEvent{}, fmt.Errorf("invalid price %v", sales[0].PriceWei)
	}
	totalPrice := WeiToEther(sales[0].PriceWei)

	out := make([]models.NftSale, len(sales))
	for i, s := range sales {
		if s.Quantity == 0 {
			return models.SaleEvent{}, fmt.Errorf("sale of token %s has zero quantity", s.TokenID)
		}
		out[i] = models.NftSale{
			ChainID:           s.ChainID,
			TxHash:            stringtools.TrimLowerCase(s.TxHash),
			BlockNumber:       s.BlockNumber,
			Timestamp:         s.TimestampMs,
			CollectionAddress: stringtools.TrimLowerCase(s.CollectionAddress),
			TokenID:           s.TokenID,
			Price:             totalPrice / float64(len(sales)) / float64(s.Quantity),
			PaymentToken:      paymentToken,
			Buyer:             stringtools.TrimLowerCase(s.Buyer),
			Seller:            stringtools.TrimLowerCase(s.Seller),
			Quantity:          s.Quantity,
			Source:            s.Source,
			TokenStandard:     s.TokenStandard,
		}
	}
	return models.SaleEvent{Sales: out, TotalPrice: totalPrice}, nil
}

// WeiToEther converts a wei amount to ether as a float.
func WeiToEther(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return f
}
