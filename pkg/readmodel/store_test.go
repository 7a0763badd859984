package readmodel

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger, err := logging.NewColoredLogger(logging.ComponentReadModel, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	store, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createdEvent(tokenID int64, txHash string) chain.InvoiceCreatedEvent {
	return chain.InvoiceCreatedEvent{
		TokenID:     big.NewInt(tokenID),
		Issuer:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Amount:      big.NewInt(150_000),
		TxHash:      txHash,
		LogIndex:    0,
		BlockNumber: 10,
	}
}

func tradedEvent(tokenID int64, txHash string, logIndex uint) chain.InvoiceTradedEvent {
	return chain.InvoiceTradedEvent{
		TokenID:     big.NewInt(tokenID),
		From:        common.HexToAddress("0x2222222222222222222222222222222222222222"),
		To:          common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Price:       big.NewInt(140_000),
		TxHash:      txHash,
		LogIndex:    logIndex,
		BlockNumber: 11,
	}
}

func TestInvoiceCreatedIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev := createdEvent(7, "0xaaaa")
	if err := store.HandleInvoiceCreated(ctx, ev); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := store.HandleInvoiceCreated(ctx, ev); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	invoices, _, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if invoices != 1 {
		t.Errorf("expected 1 projected invoice after replay, got %d", invoices)
	}
}

func TestInvoiceTradedIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.HandleInvoiceCreated(ctx, createdEvent(7, "0xaaaa")); err != nil {
		t.Fatalf("apply created failed: %v", err)
	}

	ev := tradedEvent(7, "0xbbbb", 2)
	if err := store.HandleInvoiceTraded(ctx, ev); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := store.HandleInvoiceTraded(ctx, ev); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	_, trades, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if trades != 1 {
		t.Errorf("expected 1 trade after replay, got %d", trades)
	}
}

func TestRecentTradesOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := tradedEvent(1, "0x01", 0)
	first.BlockNumber = 5
	second := tradedEvent(2, "0x02", 0)
	second.BlockNumber = 9

	if err := store.HandleInvoiceTraded(ctx, first); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := store.HandleInvoiceTraded(ctx, second); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	trades, err := store.RecentTrades(ctx, 10)
	if err != nil {
		t.Fatalf("recent trades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TokenID != 2 || trades[1].TokenID != 1 {
		t.Errorf("expected newest first, got %+v", trades)
	}
	if trades[0].Price != "140000" {
		t.Errorf("unexpected price encoding: %s", trades[0].Price)
	}
}

func TestTradeMovesProjectedOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.HandleInvoiceCreated(ctx, createdEvent(7, "0xaaaa")); err != nil {
		t.Fatalf("apply created failed: %v", err)
	}
	if err := store.HandleInvoiceTraded(ctx, tradedEvent(7, "0xbbbb", 0)); err != nil {
		t.Fatalf("apply traded failed: %v", err)
	}

	var owner string
	if err := store.db.QueryRowContext(ctx, "SELECT owner FROM invoices WHERE token_id = 7").Scan(&owner); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if owner != "0x3333333333333333333333333333333333333333" {
		t.Errorf("expected owner moved to buyer, got %s", owner)
	}
}

func TestAPIKeyLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertAPIKey(ctx, "ak_test123", "0x4444444444444444444444444444444444444444", "ci"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	wallet, err := store.LookupAPIKey(ctx, "ak_test123")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if wallet != "0x4444444444444444444444444444444444444444" {
		t.Errorf("unexpected wallet: %s", wallet)
	}

	_, err = store.LookupAPIKey(ctx, "ak_missing")
	if !errors.IsUnauthorized(err) {
		t.Errorf("expected UnauthorizedError for unknown key, got %v", err)
	}
}
