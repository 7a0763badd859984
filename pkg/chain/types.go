package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Invoice is a read-only projection of an on-chain invoice record. It is
// never cached or mutated by this layer: every read is a fresh chain query.
type Invoice struct {
	TokenID    uint64   `json:"tokenId"`
	Amount     *big.Int `json:"amount"`
	DueDate    int64    `json:"dueDate"`
	Metadata   string   `json:"metadata"`
	Issuer     string   `json:"issuer"`
	IsVerified bool     `json:"isVerified"`
}

// Listing is a read-only projection of a marketplace listing: a tokenized
// invoice with an asking price.
type Listing struct {
	TokenID uint64   `json:"tokenId"`
	Seller  string   `json:"seller"`
	Price   *big.Int `json:"price"`
	Active  bool     `json:"active"`
}

// PendingTx is the result of a state-changing call. It carries the submitted
// transaction's hash only: the call is NOT awaited for confirmation. The API
// contract is "submission accepted", not "change committed"; callers must
// poll or subscribe separately to learn final status.
type PendingTx struct {
	Hash string `json:"txHash"`
}

// Wallet is the signing capability a caller holds. It authorizes
// state-changing calls on the caller's behalf; its lifetime is one request.
type Wallet interface {
	// Address returns the wallet's on-chain address.
	Address() common.Address

	// TransactOpts returns transaction authorization options bound to the
	// given chain ID.
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
}

// InvoiceCreatedEvent is emitted by the contract when a new invoice token is
// minted.
type InvoiceCreatedEvent struct {
	TokenID     *big.Int
	Issuer      common.Address
	Amount      *big.Int
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
}

// InvoiceTradedEvent is emitted by the contract when a listed invoice changes
// hands.
type InvoiceTradedEvent struct {
	TokenID     *big.Int
	From        common.Address
	To          common.Address
	Price       *big.Int
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
}

// EventSink receives domain events decoded from contract logs. Handlers must
// be idempotent: the same log can be delivered more than once after a
// resubscribe. A handler error is logged and isolated; it never tears down
// the subscription.
type EventSink interface {
	HandleInvoiceCreated(ctx context.Context, ev InvoiceCreatedEvent) error
	HandleInvoiceTraded(ctx context.Context, ev InvoiceTradedEvent) error
}
