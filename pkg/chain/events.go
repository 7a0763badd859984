package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/logging"
)

const (
	watchRetryMin = time.Second
	watchRetryMax = 30 * time.Second
)

// Raw log shapes for UnpackLog. Field names follow the ABI argument names.
type rawInvoiceCreated struct {
	TokenId *big.Int
	Issuer  common.Address
	Amount  *big.Int
}

type rawInvoiceTraded struct {
	TokenId *big.Int
	From    common.Address
	To      common.Address
	Price   *big.Int
}

// startWatching registers the two contract event subscriptions. Each runs in
// its own goroutine and resubscribes with backoff if the provider drops the
// subscription. Sink failures are logged and isolated: they never unsubscribe
// or crash the process.
func (c *Client) startWatching() {
	if c.sink == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.watchCancel = cancel

	c.wg.Add(2)
	go c.watch(ctx, EventInvoiceCreated)
	go c.watch(ctx, EventInvoiceTraded)
}

func (c *Client) watch(ctx context.Context, name string) {
	defer c.wg.Done()

	backoff := watchRetryMin
	for {
		if ctx.Err() != nil {
			return
		}

		logs, sub, err := c.contract.WatchLogs(&bind.WatchOpts{Context: ctx}, name)
		if err != nil {
			c.logger.ComponentWarn(logging.ComponentEvents, "event subscription failed",
				zap.String("event", name),
				zap.Duration("retry_in", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > watchRetryMax {
				backoff = watchRetryMax
			}
			continue
		}

		c.logger.ComponentInfo(logging.ComponentEvents, "subscribed to contract event", zap.String("event", name))
		backoff = watchRetryMin

		if !c.deliverLoop(ctx, name, logs, sub) {
			return
		}
	}
}

// deliverLoop forwards logs to the sink until the subscription errors
// (returns true, caller resubscribes) or the context ends (returns false).
func (c *Client) deliverLoop(ctx context.Context, name string, logs <-chan types.Log, sub interface {
	Unsubscribe()
	Err() <-chan error
}) bool {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return false
		case err := <-sub.Err():
			c.logger.ComponentWarn(logging.ComponentEvents, "event subscription dropped",
				zap.String("event", name),
				zap.Error(err),
			)
			return true
		case lg := <-logs:
			c.dispatch(ctx, name, lg)
		}
	}
}

// dispatch decodes one log and hands it to the sink. A handler error or
// panic is logged and swallowed so one bad event cannot take the
// subscription down with it.
func (c *Client) dispatch(ctx context.Context, name string, lg types.Log) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ComponentError(logging.ComponentEvents, "event handler panicked",
				zap.String("event", name),
				zap.Any("panic", r),
			)
		}
	}()

	var err error
	switch name {
	case EventInvoiceCreated:
		var raw rawInvoiceCreated
		if err = c.contract.UnpackLog(&raw, name, lg); err == nil {
			err = c.sink.HandleInvoiceCreated(ctx, InvoiceCreatedEvent{
				TokenID:     raw.TokenId,
				Issuer:      raw.Issuer,
				Amount:      raw.Amount,
				TxHash:      lg.TxHash.Hex(),
				LogIndex:    lg.Index,
				BlockNumber: lg.BlockNumber,
			})
		}
	case EventInvoiceTraded:
		var raw rawInvoiceTraded
		if err = c.contract.UnpackLog(&raw, name, lg); err == nil {
			err = c.sink.HandleInvoiceTraded(ctx, InvoiceTradedEvent{
				TokenID:     raw.TokenId,
				From:        raw.From,
				To:          raw.To,
				Price:       raw.Price,
				TxHash:      lg.TxHash.Hex(),
				LogIndex:    lg.Index,
				BlockNumber: lg.BlockNumber,
			})
		}
	}

	if err != nil {
		c.logger.ComponentError(logging.ComponentEvents, "event handling failed",
			zap.String("event", name),
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.Error(err),
		)
	}
}
