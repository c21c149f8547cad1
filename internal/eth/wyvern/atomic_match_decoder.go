package wyvern

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/6529-Collections/salesnode/internal/ingest"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"github.com/ethereum/go-ethereum/common"
)

// AtomicMatchInputs are the atomicMatch_ arguments the sale decoding needs.
type AtomicMatchInputs struct {
	Addrs       []common.Address
	Uints       []*big.Int
	CalldataBuy []byte
}

// AtomicMatchDecoder recovers OpenSea sales from Wyvern atomicMatch_ calldata.
// Single-item sales are read from the buy-side transfer call; bundles go
// through the atomicizer and carry one transferFrom per item.
type AtomicMatchDecoder struct {
	atomicizer      common.Address
	merkleValidator common.Address
}

var _ ingest.CalldataDecoder = (*AtomicMatchDecoder)(nil)

func NewAtomicMatchDecoder(atomicizer, merkleValidator common.Address) *AtomicMatchDecoder {
	return &AtomicMatchDecoder{atomicizer: atomicizer, merkleValidator: merkleValidator}
}

func (d *AtomicMatchDecoder) Selector() [4]byte {
	return atomicMatchSelector
}

func (d *AtomicMatchDecoder) Decode(calldata []byte, meta ingest.TxMeta) ([]models.PreParsedSale, error) {
	inputs, err := UnpackAtomicMatch(calldata, meta.TxHash)
	if err != nil {
		return nil, err
	}
	return d.DecodeAtomicMatch(inputs, meta)
}

// UnpackAtomicMatch ABI-decodes full atomicMatch_ transaction input.
func UnpackAtomicMatch(calldata []byte, txHash string) (AtomicMatchInputs, error) {
	if len(calldata) < selectorSize || !bytes.Equal(calldata[:selectorSize], atomicMatchSelector[:]) {
		return AtomicMatchInputs{}, ingest.NewDecodeError(txHash, "not an atomicMatch_ call")
	}
	values, err := exchangeABI.Methods["atomicMatch_"].Inputs.Unpack(calldata[selectorSize:])
	if err != nil {
		return AtomicMatchInputs{}, ingest.NewDecodeError(txHash, "failed to unpack atomicMatch_: %v", err)
	}

	addrs, ok := values[argAddrs].([14]common.Address)
	if !ok {
		return AtomicMatchInputs{}, ingest.NewDecodeError(txHash, "unexpected addrs type %T", values[argAddrs])
	}
	uints, ok := values[argUints].([18]*big.Int)
	if !ok {
		return AtomicMatchInputs{}, ingest.NewDecodeError(txHash, "unexpected uints type %T", values[argUints])
	}
	calldataBuy, ok := values[argCalldataBuy].([]byte)
	if !ok {
		return AtomicMatchInputs{}, ingest.NewDecodeError(txHash, "unexpected calldataBuy type %T", values[argCalldataBuy])
	}

	return AtomicMatchInputs{
		Addrs:       addrs[:],
		Uints:       uints[:],
		CalldataBuy: calldataBuy,
	}, nil
}

// PackAtomicMatch encodes inputs as atomicMatch_ transaction input. Arguments
// the decoder does not read are zero.
func PackAtomicMatch(inputs AtomicMatchInputs) ([]byte, error) {
	if len(inputs.Addrs) != 14 || len(inputs.Uints) != 18 {
		return nil, fmt.Errorf("atomicMatch_ takes 14 addrs and 18 uints, got %d and %d", len(inputs.Addrs), len(inputs.Uints))
	}
	var addrs [14]common.Address
	copy(addrs[:], inputs.Addrs)
	var uints [18]*big.Int
	for i, v := range inputs.Uints {
		if v == nil {
			v = new(big.Int)
		}
		uints[i] = v
	}
	return exchangeABI.Pack("atomicMatch_",
		addrs, uints, [8]uint8{},
		inputs.CalldataBuy, []byte{}, []byte{}, []byte{}, []byte{}, []byte{},
		[2]uint8{}, [5][32]byte{},
	)
}

// DecodeAtomicMatch builds one PreParsedSale per NFT moved by the match. It is
// pure: every sale carries the transaction's buyer, seller, total price and
// payment token.
func (d *AtomicMatchDecoder) DecodeAtomicMatch(inputs AtomicMatchInputs, meta ingest.TxMeta) ([]models.PreParsedSale, error) {
	if len(inputs.Addrs) <= addrSaleTarget || len(inputs.Uints) <= uintPrice {
		return nil, ingest.NewDecodeError(meta.TxHash, "atomicMatch_ has %d addrs and %d uints", len(inputs.Addrs), len(inputs.Uints))
	}
	price := inputs.Uints[uintPrice]
	if price == nil {
		return nil, ingest.NewDecodeError(meta.TxHash, "missing price")
	}

	base := models.PreParsedSale{
		ChainID:      meta.ChainID,
		TxHash:       meta.TxHash,
		BlockNumber:  meta.BlockNumber,
		TimestampMs:  meta.TimestampSec * 1000,
		PriceWei:     new(big.Int).Set(price),
		PaymentToken: addressString(inputs.Addrs[addrPaymentToken]),
		Buyer:        addressString(inputs.Addrs[addrBuyer]),
		Seller:       addressString(inputs.Addrs[addrSeller]),
		Source:       models.SourceOpenSea,
	}
	r := calldataReader{data: inputs.CalldataBuy, txHash: meta.TxHash}

	if inputs.Addrs[addrSaleTarget] != d.atomicizer {
		sale, err := d.decodeSingleSale(r, inputs.Addrs[addrNftTarget], base)
		if err != nil {
			return nil, err
		}
		return []models.PreParsedSale{sale}, nil
	}
	return d.decodeBundleSale(r, base)
}

func (d *AtomicMatchDecoder) decodeSingleSale(r calldataReader, nftTarget common.Address, sale models.PreParsedSale) (models.PreParsedSale, error) {
	offset := singleSaleOffset
	threshold := nativeQuantityThreshold

	if nftTarget == d.merkleValidator {
		collection, err := r.address(offset)
		if err != nil {
			return sale, err
		}
		sale.CollectionAddress = collection
		offset += wordSize
		threshold = merkleQuantityThreshold
	} else {
		sale.CollectionAddress = addressString(nftTarget)
	}

	tokenID, err := r.uint256(offset)
	if err != nil {
		return sale, err
	}
	sale.TokenID = tokenID.String()
	offset += wordSize

	sale.Quantity = 1
	sale.TokenStandard = models.ERC721
	if len(r.data) > threshold {
		quantity, err := r.quantity(offset)
		if err != nil {
			return sale, err
		}
		sale.Quantity = quantity
		sale.TokenStandard = models.ERC1155
	}
	return sale, nil
}

func (d *AtomicMatchDecoder) decodeBundleSale(r calldataReader, base models.PreParsedSale) ([]models.PreParsedSale, error) {
	if len(r.data) < selectorSize || !bytes.Equal(r.data[:selectorSize], atomicizeSelector[:]) {
		return nil, ingest.NewDecodeError(r.txHash, "bundle calldata is not an atomicize call")
	}

	count, err := r.uint256(bundleCountOffset)
	if err != nil {
		return nil, err
	}
	if count.Sign() == 0 {
		return nil, ingest.NewDecodeError(r.txHash, "bundle contains no items")
	}
	if !count.IsUint64() || count.Uint64() > uint64(len(r.data)/wordSize) {
		return nil, ingest.NewDecodeError(r.txHash, "implausible bundle size %s", count)
	}
	n := int(count.Uint64())

	offset := bundleCountOffset + wordSize
	collections := make([]string, n)
	for i := range collections {
		if collections[i], err = r.address(offset); err != nil {
			return nil, err
		}
		offset += wordSize
	}

	offset += (bundleTailArrays*n + bundleTailMetaWords) * wordSize

	result := make([]models.PreParsedSale, n)
	for i := range result {
		tokenID, err := r.uint256(offset + transferTokenOffset)
		if err != nil {
			return nil, err
		}
		sale := base
		sale.PriceWei = new(big.Int).Set(base.PriceWei)
		sale.CollectionAddress = collections[i]
		sale.TokenID = tokenID.String()
		sale.Quantity = 1
		sale.TokenStandard = models.ERC721
		result[i] = sale
		offset += transferCallSize
	}
	return result, nil
}
