// Package deployments reads the contract address record produced by the
// deployment pipeline. The record is written externally; this package only
// loads it, once, at process start.
package deployments

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/fylaro/fylaro-backend/pkg/errors"
)

// Logical contract names that may appear in a deployment record. Only
// InvoiceToken is required; the rest are present when the full ecosystem has
// been deployed.
const (
	ContractInvoiceToken     = "invoiceToken"
	ContractCreditScoring    = "creditScoring"
	ContractUnifiedLedger    = "unifiedLedger"
	ContractMarketplace      = "marketplace"
	ContractSettlement       = "settlement"
	ContractPaymentTracker   = "paymentTracker"
	ContractRiskAssessment   = "riskAssessment"
	ContractLiquidityPool    = "liquidityPool"
	ContractFinternetGateway = "finternetGateway"
	ContractFylaroDeployer   = "fylaroDeployer"
)

// AddressBook maps logical contract names to deployed addresses. It is
// immutable for the process lifetime: there is no write path in this layer.
type AddressBook struct {
	addresses map[string]string
}

// Load reads and parses the deployment record at path.
// It returns an AddressLoadError if the record is missing, unreadable, not
// valid JSON, or lacks the invoiceToken address. There is no partial or
// degraded mode.
func Load(path string) (*AddressBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewAddressLoadError(path, err)
	}

	var record map[string]string
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.NewAddressLoadError(path, err)
	}

	book := &AddressBook{addresses: make(map[string]string, len(record))}
	for name, addr := range record {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		book.addresses[name] = addr
	}

	if _, ok := book.addresses[ContractInvoiceToken]; !ok {
		return nil, errors.NewAddressLoadError(path, errors.NewConfigError(ContractInvoiceToken, "deployment record has no invoiceToken address"))
	}

	return book, nil
}

// InvoiceToken returns the InvoiceToken contract address. Load guarantees it
// is present.
func (b *AddressBook) InvoiceToken() string {
	return b.addresses[ContractInvoiceToken]
}

// Address returns the address for a logical contract name, if present.
func (b *AddressBook) Address(name string) (string, bool) {
	addr, ok := b.addresses[name]
	return addr, ok
}

// Names returns the logical contract names present in the record.
func (b *AddressBook) Names() []string {
	names := make([]string, 0, len(b.addresses))
	for name := range b.addresses {
		names = append(names, name)
	}
	return names
}
