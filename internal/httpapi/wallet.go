package httpapi

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// addressHexLen is the hex length of a 32-byte Sui address.
const addressHexLen = 64

type walletAccessResponse struct {
	Address           string          `json:"address"`
	RawBalance        decimal.Decimal `json:"rawBalance"`
	Decimals          int             `json:"decimals"`
	NormalizedBalance decimal.Decimal `json:"normalizedBalance"`
	HasAccess         bool            `json:"hasAccess"`
	AdvertisedMinimum decimal.Decimal `json:"advertisedMinimum"`
}

func (s *Server) handleWalletAccess(w http.ResponseWriter, r *http.Request) {
	address, ok := NormalizeAddress(r.URL.Query().Get("address"))
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidAddress)
		return
	}

	res := s.opts.Verifier.Verify(r.Context(), address)
	if res.Err != nil {
		s.logger.WithError(res.Err).WithField("address", address).Info("wallet verification failed, denying access")
	}

	writeJSON(w, http.StatusOK, walletAccessResponse{
		Address:           res.Balance.Address,
		RawBalance:        res.Balance.RawBalance,
		Decimals:          res.Balance.Decimals,
		NormalizedBalance: res.Balance.NormalizedBalance,
		HasAccess:         res.HasAccess,
		AdvertisedMinimum: s.opts.AdvertisedMinimum,
	})
}

// NormalizeAddress validates a Sui address (0x followed by 1 to 64 hex
// digits) and returns it lower-cased and zero-padded to 64 digits.
func NormalizeAddress(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 3 || (raw[:2] != "0x" && raw[:2] != "0X") {
		return "", false
	}

	digits := strings.ToLower(raw[2:])
	if len(digits) > addressHexLen {
		return "", false
	}
	padded := strings.Repeat("0", addressHexLen-len(digits)) + digits
	if _, err := hex.DecodeString(padded); err != nil {
		return "", false
	}
	return "0x" + padded, true
}
