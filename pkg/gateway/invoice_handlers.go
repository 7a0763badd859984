package gateway

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/errors"
)

// bigAmount decodes a wei quantity from either a JSON number or a decimal
// string. Amounts routinely exceed float64 precision, so clients are expected
// to send strings; numbers are accepted for small values.
type bigAmount struct {
	*big.Int
}

func (a *bigAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if s == "" || s == "null" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errors.NewValidationError("amount", "must be a decimal integer", s)
	}
	a.Int = v
	return nil
}

type createInvoiceRequest struct {
	Amount   bigAmount `json:"amount"`
	DueDate  int64     `json:"dueDate"`
	Metadata string    `json:"metadata"`
}

type listInvoiceRequest struct {
	Price bigAmount `json:"price"`
}

// POST /v1/invoice
func (g *Gateway) createInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "invalid JSON body", nil))
		return
	}
	if req.Amount.Int == nil || req.Amount.Sign() <= 0 {
		writeError(w, errors.NewValidationError("amount", "must be a positive integer", req.Amount.Int))
		return
	}
	if req.DueDate <= time.Now().Unix() {
		writeError(w, errors.NewValidationError("dueDate", "must be in the future", req.DueDate))
		return
	}
	if strings.TrimSpace(req.Metadata) == "" {
		writeError(w, errors.NewValidationError("metadata", "must not be empty", nil))
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.CreateInvoice(r.Context(), req.Amount.Int, req.DueDate, req.Metadata, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Invoice creation transaction submitted",
	})
}

// POST /v1/invoice/{tokenId}/list
func (g *Gateway) listInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req listInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "invalid JSON body", nil))
		return
	}
	if req.Price.Int == nil || req.Price.Sign() <= 0 {
		writeError(w, errors.NewValidationError("price", "must be a positive integer", req.Price.Int))
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.ListInvoice(r.Context(), tokenID, req.Price.Int, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Invoice listing transaction submitted",
	})
}

// POST /v1/invoice/{tokenId}/buy
func (g *Gateway) buyInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.BuyInvoice(r.Context(), tokenID, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Invoice purchase transaction submitted",
	})
}

// POST /v1/invoice/{tokenId}/verify
func (g *Gateway) verifyInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.VerifyInvoice(r.Context(), tokenID, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Invoice verification transaction submitted",
	})
}

// GET /v1/invoice/{tokenId}
func (g *Gateway) getInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := g.invoices.GetInvoiceDetails(r.Context(), tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// GET /v1/user/invoices
// Defaults to the caller's wallet; ?address= lets the caller inspect another
// holder's portfolio (holdings are public chain state anyway).
func (g *Gateway) userInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	owner := identityFromRequest(r).Address
	if addr, ok, err := parseOptionalAddress(r); err != nil {
		writeError(w, err)
		return
	} else if ok {
		owner = addr
	}

	invoices, err := g.invoices.GetUserInvoices(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	if invoices == nil {
		invoices = []chain.Invoice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  owner.Hex(),
		"invoices": invoices,
	})
}

// GET /v1/marketplace/listings
func (g *Gateway) marketplaceListingsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listings, err := g.invoices.GetMarketplaceListings(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if listings == nil {
		listings = []chain.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listings": listings,
		"page":     page,
		"limit":    limit,
	})
}

// GET /v1/marketplace/activity
func (g *Gateway) marketplaceActivityHandler(w http.ResponseWriter, r *http.Request) {
	if g.store == nil {
		writeError(w, errors.NewNotInitializedError(nil))
		return
	}

	_, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	trades, err := g.store.RecentTrades(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
	})
}

// parseTokenID reads the tokenId path parameter.
func parseTokenID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "tokenId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("tokenId", "must be a non-negative integer", raw)
	}
	return id, nil
}

// parsePagination normalizes page/limit query parameters. Absent values get
// defaults; malformed or out-of-range values are a validation error.
func parsePagination(r *http.Request) (page, limit int, err error) {
	page, limit = 1, 10

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.NewValidationError("page", "must be a positive integer", raw)
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errors.NewValidationError("limit", "must be a positive integer", raw)
		}
		if limit > 100 {
			limit = 100
		}
	}
	return page, limit, nil
}

// address parsing for optional ?address= override on read routes
func parseOptionalAddress(r *http.Request) (common.Address, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("address"))
	if raw == "" {
		return common.Address{}, false, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, false, errors.NewValidationError("address", "must be a hex address", raw)
	}
	return common.HexToAddress(raw), true, nil
}
