package wyvern

import "github.com/ethereum/go-ethereum/common"

// Wyvern 2.3 deployment on Ethereum mainnet.
var (
	MainnetExchangeAddress        = common.HexToAddress("0x7f268357a8c2552623316e2562d90e642bb538e5")
	MainnetAtomicizerAddress      = common.HexToAddress("0xc99f70bfd82fb7c8f8191fdfbfb735606b15e5c5")
	MainnetMerkleValidatorAddress = common.HexToAddress("0xbaf2127b49fc93cbca6269fade0f7f31df4c88a7")
	MainnetWethAddress            = common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	NullAddress                   = common.Address{}
)

// First block containing OrdersMatched events of the 2.3 exchange.
const MainnetStartBlock uint64 = 14120913

const (
	selectorSize = 4
	wordSize     = 32

	// Single-item sales: the inner buy call is (from, to, ...) so the first
	// interesting word follows the selector and two address words.
	singleSaleOffset = selectorSize + 2*wordSize

	// Native listings with a trailing quantity word are ERC1155 transfers.
	nativeQuantityThreshold = singleSaleOffset + wordSize
	// Merkle validator listings: an ERC721 match with an empty proof is exactly
	// this long; anything longer carries an amount word.
	merkleQuantityThreshold = selectorSize + 7*wordSize

	// atomicize(address[],uint256[],uint256[],bytes): the addrs length word
	// follows the selector and four head offsets.
	bundleCountOffset = selectorSize + 4*wordSize
	// After the N addresses the values and calldataLengths arrays (N words
	// each, plus a length word each) and the calldatas length word.
	bundleTailArrays    = 2
	bundleTailMetaWords = 3
	// Each bundled call is transferFrom(from, to, tokenId).
	transferCallSize    = selectorSize + 3*wordSize
	transferTokenOffset = selectorSize + 2*wordSize
)

// atomicMatch_ argument positions.
const (
	addrBuyer        = 1
	addrNftTarget    = 4
	addrPaymentToken = 6
	addrSeller       = 8
	addrSaleTarget   = 11
	uintPrice        = 4

	argAddrs       = 0
	argUints       = 1
	argCalldataBuy = 3
)
