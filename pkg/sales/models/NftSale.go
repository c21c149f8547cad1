package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

type ChainID string

const (
	ChainMainnet ChainID = "1"
	ChainGoerli  ChainID = "5"
	ChainPolygon ChainID = "137"
)

type SaleSource string

const (
	SourceOpenSea  SaleSource = "OPENSEA"
	SourceInfinity SaleSource = "INFINITY"
)

type TokenStandard string

const (
	ERC721  TokenStandard = "ERC721"
	ERC1155 TokenStandard = "ERC1155"
)

// PreParsedSale is one NFT leg of a marketplace transaction as recovered from
// calldata, before payment filtering and price normalization. Bundle sales
// produce several entries sharing buyer, seller, price and payment token.
type PreParsedSale struct {
	ChainID           ChainID
	TxHash            string
	BlockNumber       uint64
	TimestampMs       uint64
	PriceWei          *big.Int
	PaymentToken      string
	Buyer             string
	Seller            string
	CollectionAddress string
	TokenID           string
	Quantity          uint64
	Source            SaleSource
	TokenStandard     TokenStandard
}

// NftSale is a normalized sale: lowercase addresses and a per-unit price in
// ether.
type NftSale struct {
	ChainID           ChainID       `json:"chain_id"`
	TxHash            string        `json:"tx_hash"`
	BlockNumber       uint64        `json:"block_number"`
	Timestamp         uint64        `json:"timestamp"`
	CollectionAddress string        `json:"collection_address"`
	TokenID           string        `json:"token_id"`
	Price             float64       `json:"price"`
	PaymentToken      string        `json:"payment_token"`
	Buyer             string        `json:"buyer"`
	Seller            string        `json:"seller"`
	Quantity          uint64        `json:"quantity"`
	Source            SaleSource    `json:"source"`
	TokenStandard     TokenStandard `json:"token_standard"`
}

// DocID is the deduplication key of a sale record.
func (s NftSale) DocID() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d-%s-%s", s.CollectionAddress, s.BlockNumber, s.TxHash, s.TokenID)))
	return hex.EncodeToString(sum[:])
}

// SaleEvent groups the sales of a single transaction.
type SaleEvent struct {
	Sales      []NftSale `json:"sales"`
	TotalPrice float64   `json:"total_price"`
}
