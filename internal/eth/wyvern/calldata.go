package wyvern

import (
	"math/big"
	"strings"

	"github.com/6529-Collections/salesnode/internal/ingest"
	"github.com/ethereum/go-ethereum/common"
)

// calldataReader reads 32-byte words at absolute byte offsets, failing with a
// DecodeError instead of slicing out of range.
type calldataReader struct {
	data   []byte
	txHash string
}

func (r calldataReader) word(offset int) ([]byte, error) {
	if offset < 0 || offset+wordSize > len(r.data) {
		return nil, ingest.NewDecodeError(r.txHash, "calldata of %d bytes too short for word at offset %d", len(r.data), offset)
	}
	return r.data[offset : offset+wordSize], nil
}

func (r calldataReader) uint256(offset int) (*big.Int, error) {
	w, err := r.word(offset)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

func (r calldataReader) address(offset int) (string, error) {
	w, err := r.word(offset)
	if err != nil {
		return "", err
	}
	for _, b := range w[:wordSize-common.AddressLength] {
		if b != 0 {
			return "", ingest.NewDecodeError(r.txHash, "word at offset %d is not an address", offset)
		}
	}
	return addressString(common.BytesToAddress(w)), nil
}

func (r calldataReader) quantity(offset int) (uint64, error) {
	q, err := r.uint256(offset)
	if err != nil {
		return 0, err
	}
	if !q.IsUint64() || q.Sign() == 0 {
		return 0, ingest.NewDecodeError(r.txHash, "invalid quantity %s at offset %d", q, offset)
	}
	return q.Uint64(), nil
}

func addressString(a common.Address) string {
	return strings.ToLower(a.Hex())
}
