package ingest

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/6529-Collections/salesnode/pkg/sales/models"
)

// DecodeError reports calldata whose shape does not match what a decoder
// expects. It is per-event and never fatal to the pipeline.
type DecodeError struct {
	TxHash string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.TxHash == "" {
		return "decode error: " + e.Reason
	}
	return fmt.Sprintf("decode error in tx %s: %s", e.TxHash, e.Reason)
}

func NewDecodeError(txHash string, format string, args ...any) *DecodeError {
	return &DecodeError{TxHash: txHash, Reason: fmt.Sprintf(format, args...)}
}

// TxMeta carries the transaction context a decoder stamps onto every sale.
type TxMeta struct {
	ChainID      models.ChainID
	TxHash       string
	BlockNumber  uint64
	TimestampSec uint64
}

// CalldataDecoder turns the input data of one marketplace function into the
// sales it settles.
type CalldataDecoder interface {
	Selector() [4]byte
	Decode(calldata []byte, meta TxMeta) ([]models.PreParsedSale, error)
}

// DecoderRegistry dispatches calldata to the decoder registered for its
// function selector.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[[4]byte]CalldataDecoder
}

func NewDecoderRegistry(decoders ...CalldataDecoder) *DecoderRegistry {
	r := &DecoderRegistry{decoders: make(map[[4]byte]CalldataDecoder)}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Register adds d, replacing any decoder with the same selector.
func (r *DecoderRegistry) Register(d CalldataDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[d.Selector()] = d
}

func (r *DecoderRegistry) Decode(calldata []byte, meta TxMeta) ([]models.PreParsedSale, error) {
	if len(calldata) < 4 {
		return nil, NewDecodeError(meta.TxHash, "calldata of %d bytes has no selector", len(calldata))
	}
	var selector [4]byte
	copy(selector[:], calldata[:4])

	r.mu.RLock()
	d, ok := r.decoders[selector]
	r.mu.RUnlock()
	if !ok {
		return nil, NewDecodeError(meta.TxHash, "no decoder for selector 0x%s", hex.EncodeToString(selector[:]))
	}
	return d.Decode(calldata, meta)
}
