package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fylaro/fylaro-backend/pkg/errors"
)

// Admin routes submit owner-only contract calls. The gateway does not try to
// know who the contract owner is; a non-owner caller gets the contract's
// revert back as a 409.

type addIssuerRequest struct {
	Address string `json:"address"`
}

type updateFeeRequest struct {
	Fee bigAmount `json:"fee"`
}

// POST /v1/admin/issuers
func (g *Gateway) addVerifiedIssuerHandler(w http.ResponseWriter, r *http.Request) {
	var req addIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "invalid JSON body", nil))
		return
	}
	addr := strings.TrimSpace(req.Address)
	if !common.IsHexAddress(addr) {
		writeError(w, errors.NewValidationError("address", "must be a hex address", addr))
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.AddVerifiedIssuer(r.Context(), common.HexToAddress(addr), id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Issuer verification transaction submitted",
	})
}

// POST /v1/admin/fees/platform
func (g *Gateway) updatePlatformFeeHandler(w http.ResponseWriter, r *http.Request) {
	var req updateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "invalid JSON body", nil))
		return
	}
	if req.Fee.Int == nil || req.Fee.Sign() < 0 {
		writeError(w, errors.NewValidationError("fee", "must be a non-negative integer", req.Fee.Int))
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.UpdatePlatformFee(r.Context(), req.Fee.Int, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Platform fee update transaction submitted",
	})
}

// POST /v1/admin/fees/verification
func (g *Gateway) updateVerificationFeeHandler(w http.ResponseWriter, r *http.Request) {
	var req updateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "invalid JSON body", nil))
		return
	}
	if req.Fee.Int == nil || req.Fee.Sign() < 0 {
		writeError(w, errors.NewValidationError("fee", "must be a non-negative integer", req.Fee.Int))
		return
	}

	id := identityFromRequest(r)
	tx, err := g.invoices.UpdateVerificationFee(r.Context(), req.Fee.Int, id.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txHash":  tx.Hash,
		"message": "Verification fee update transaction submitted",
	})
}
