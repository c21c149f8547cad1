package wyvern

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var exchangeABI abi.ABI
var atomicizerABI abi.ABI

// OrdersMatchedTopic is topic0 of the exchange's OrdersMatched event.
var OrdersMatchedTopic common.Hash

var atomicMatchSelector [4]byte
var atomicizeSelector [4]byte

func init() {
	parsed, err := abi.JSON(strings.NewReader(`[
  {
    "constant": false,
    "inputs": [
      {"name": "addrs", "type": "address[14]"},
      {"name": "uints", "type": "uint256[18]"},
      {"name": "feeMethodsSidesKindsHowToCalls", "type": "uint8[8]"},
      {"name": "calldataBuy", "type": "bytes"},
      {"name": "calldataSell", "type": "bytes"},
      {"name": "replacementPatternBuy", "type": "bytes"},
      {"name": "replacementPatternSell", "type": "bytes"},
      {"name": "staticExtradataBuy", "type": "bytes"},
      {"name": "staticExtradataSell", "type": "bytes"},
      {"name": "vs", "type": "uint8[2]"},
      {"name": "rssMetadata", "type": "bytes32[5]"}
    ],
    "name": "atomicMatch_",
    "outputs": [],
    "payable": true,
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "name": "buyHash", "type": "bytes32"},
      {"indexed": false, "name": "sellHash", "type": "bytes32"},
      {"indexed": true, "name": "maker", "type": "address"},
      {"indexed": true, "name": "taker", "type": "address"},
      {"indexed": false, "name": "price", "type": "uint256"},
      {"indexed": true, "name": "metadata", "type": "bytes32"}
    ],
    "name": "OrdersMatched",
    "type": "event"
  }
]`))
	if err != nil {
		panic("failed to parse Wyvern exchange ABI")
	}
	exchangeABI = parsed

	parsed, err = abi.JSON(strings.NewReader(`[
  {
    "constant": false,
    "inputs": [
      {"name": "addrs", "type": "address[]"},
      {"name": "values", "type": "uint256[]"},
      {"name": "calldataLengths", "type": "uint256[]"},
      {"name": "calldatas", "type": "bytes"}
    ],
    "name": "atomicize",
    "outputs": [],
    "payable": false,
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`))
	if err != nil {
		panic("failed to parse Wyvern atomicizer ABI")
	}
	atomicizerABI = parsed

	OrdersMatchedTopic = exchangeABI.Events["OrdersMatched"].ID
	copy(atomicMatchSelector[:], exchangeABI.Methods["atomicMatch_"].ID)
	copy(atomicizeSelector[:], atomicizerABI.Methods["atomicize"].ID)
}
