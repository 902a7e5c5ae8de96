package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamchannel/sequencer/internal/errs"
)

// statusForKind maps a domain error kind to the HTTP status the caller sees.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.MalformedRequest, errs.BadTimestamp, errs.AmountRegression:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.AlreadyExists, errs.StaleSequence:
		return http.StatusConflict
	case errs.Expired:
		return http.StatusGone
	case errs.Insolvent:
		return http.StatusPaymentRequired
	case errs.BadSignature:
		return http.StatusUnauthorized
	case errs.SettlementRevert:
		return http.StatusBadGateway
	case errs.Timeout:
		return http.StatusGatewayTimeout
	case errs.StorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a domain error into a structured JSON error body
// and the matching HTTP status, per the error taxonomy table.
func writeError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{"error": string(kind) + ": " + err.Error()})
}
