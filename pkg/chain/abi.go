package chain

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abis/InvoiceToken.json
var invoiceTokenABIJSON string

// invoiceTokenABI is the fixed interface description of the InvoiceToken
// contract. Any mismatch between this and the deployed contract is a fatal
// integration error, not something to paper over.
var invoiceTokenABI = mustParseABI(invoiceTokenABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid embedded InvoiceToken ABI: " + err.Error())
	}
	return parsed
}

// Contract method names. Used for transaction submission and for per-method
// gas ceilings.
const (
	methodCreateInvoice         = "createInvoice"
	methodVerifyInvoice         = "verifyInvoice"
	methodListInvoice           = "listInvoice"
	methodBuyInvoice            = "buyInvoice"
	methodAddVerifiedIssuer     = "addVerifiedIssuer"
	methodUpdatePlatformFee     = "updatePlatformFee"
	methodUpdateVerificationFee = "updateVerificationFee"
	methodInvoices              = "invoices"
	methodListings              = "listings"
	methodGetUserInvoices       = "getUserInvoices"
	methodTotalSupply           = "totalSupply"
)

// Contract event names.
const (
	EventInvoiceCreated = "InvoiceCreated"
	EventInvoiceTraded  = "InvoiceTraded"
)
