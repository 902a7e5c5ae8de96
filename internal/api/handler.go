package api

import (
	"context"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamchannel/sequencer/internal/errs"
	"github.com/streamchannel/sequencer/internal/state"
	"github.com/streamchannel/sequencer/internal/voucher"
)

// Settlement is the on-chain closure dependency. Satisfied by *chain.Client.
type Settlement interface {
	Finalize(ctx context.Context, v *voucher.Voucher) (*types.Receipt, error)
}

// Handler wires the sequencer's HTTP surface onto a Gin engine. Each route
// is a thin dispatcher: parse, delegate to Manager/Settlement, translate
// domain errors into response codes.
type Handler struct {
	manager    *state.Manager
	settlement Settlement
	log        *zap.Logger
}

func NewHandler(manager *state.Manager, settlement Settlement, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{manager: manager, settlement: settlement, log: log}
}

// Register mounts all routes onto rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/channel/seed", h.handleSeed)
	rg.GET("/channel/:id", h.handleGet)
	rg.POST("/validate", h.handleValidate)
	rg.POST("/settle", h.handleSettle)
	rg.POST("/channel/finalize", h.handleFinalize)
	rg.GET("/channels/by-owner/:addr", h.handleListByOwner)
}

func (h *Handler) handleSeed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleSeed", err.Error()))
		return
	}
	channelID, owner, balance, err := req.parse()
	if err != nil {
		writeError(c, err)
		return
	}

	ch, err := h.manager.Seed(c.Request.Context(), channelID, owner, balance, req.ExpiryTimestamp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": toChannelResponse(ch)})
}

func (h *Handler) handleGet(c *gin.Context) {
	channelID, err := parseChannelIDParam(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ch, err := h.manager.Get(channelID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": toChannelResponse(ch)})
}

func (h *Handler) handleValidate(c *gin.Context) {
	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleValidate", err.Error()))
		return
	}
	v, err := req.parse()
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.manager.Validate(v); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) handleSettle(c *gin.Context) {
	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleSettle", err.Error()))
		return
	}
	v, err := req.parse()
	if err != nil {
		writeError(c, err)
		return
	}
	ch, err := h.manager.Settle(c.Request.Context(), v)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": toChannelResponse(ch)})
}

func (h *Handler) handleFinalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleFinalize", err.Error()))
		return
	}
	channelID, err := req.parse()
	if err != nil {
		writeError(c, err)
		return
	}

	ch, err := h.manager.Get(channelID)
	if err != nil {
		writeError(c, err)
		return
	}
	if ch.Finalized {
		writeError(c, errs.New(errs.Expired, "api.handleFinalize", "channel already finalized"))
		return
	}
	if len(ch.FinalizableSequencerSignature) == 0 {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleFinalize", "channel has no fully-signed recipient array to finalise"))
		return
	}

	v := voucherFromChannel(ch)
	if _, err := h.settlement.Finalize(c.Request.Context(), v); err != nil {
		writeError(c, err)
		return
	}
	if err := h.manager.MarkFinalized(c.Request.Context(), channelID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"finalized": true, "channelId": hexutil.Encode(channelID[:])})
}

func (h *Handler) handleListByOwner(c *gin.Context) {
	addr := c.Param("addr")
	if !common.IsHexAddress(addr) {
		writeError(c, errs.New(errs.MalformedRequest, "api.handleListByOwner", "addr must be a 20-byte hex address"))
		return
	}
	ids := h.manager.ListByOwner(common.HexToAddress(addr))
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = hexutil.Encode(id[:])
	}
	c.JSON(http.StatusOK, gin.H{"channels": out})
}

func parseChannelIDParam(raw string) ([32]byte, error) {
	var channelID [32]byte
	idBytes, err := hexutil.Decode(raw)
	if err != nil || len(idBytes) != 32 {
		return channelID, errs.New(errs.MalformedRequest, "api.parseChannelIDParam", "id must be a 32-byte hex string")
	}
	copy(channelID[:], idBytes)
	return channelID, nil
}

// voucherFromChannel reconstructs the last voucher whose recipients array
// covered the channel's entire recipient set: the only array the owner's
// signature (ch.FinalizableUserSignature) actually authenticates. Used for
// replaying against Settlement.Finalize. A settle against a narrower,
// single-recipient array never touches these fields, so this is never a
// superset of what was actually signed.
func voucherFromChannel(ch *state.Channel) *voucher.Voucher {
	recipients := make([]common.Address, len(ch.FinalizableRecipients))
	amounts := make([]*big.Int, len(ch.FinalizableRecipients))
	for i, r := range ch.FinalizableRecipients {
		recipients[i] = r.Address
		amounts[i] = r.Balance
	}
	return &voucher.Voucher{
		ChannelID:      ch.ChannelID,
		SequenceNumber: ch.FinalizableSequenceNumber,
		Timestamp:      ch.FinalizableTimestamp,
		Recipients:     recipients,
		Amounts:        amounts,
		UserSignature:  ch.FinalizableUserSignature,
	}
}
