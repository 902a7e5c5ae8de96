package api

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/streamchannel/sequencer/internal/errs"
	"github.com/streamchannel/sequencer/internal/state"
	"github.com/streamchannel/sequencer/internal/voucher"
)

// seedRequest is the body of POST /channel/seed.
type seedRequest struct {
	ChannelID       string `json:"channelId" binding:"required"`
	Owner           string `json:"owner" binding:"required"`
	Balance         string `json:"balance" binding:"required"`
	ExpiryTimestamp int64  `json:"expiryTimestamp" binding:"required"`
}

func (r seedRequest) parse() (channelID [32]byte, owner common.Address, balance *big.Int, err error) {
	const op = "api.parseSeedRequest"
	idBytes, decErr := hexutil.Decode(r.ChannelID)
	if decErr != nil || len(idBytes) != 32 {
		return channelID, owner, nil, errs.New(errs.MalformedRequest, op, "channelId must be a 32-byte hex string")
	}
	copy(channelID[:], idBytes)

	if !common.IsHexAddress(r.Owner) {
		return channelID, owner, nil, errs.New(errs.MalformedRequest, op, "owner must be a 20-byte hex address")
	}
	owner = common.HexToAddress(r.Owner)

	balance, ok := new(big.Int).SetString(r.Balance, 10)
	if !ok || balance.Sign() < 0 {
		return channelID, owner, nil, errs.New(errs.MalformedRequest, op, "balance must be a non-negative decimal integer string")
	}
	return channelID, owner, balance, nil
}

// voucherRequest accepts both the single-recipient convenience form
// (amount/receiver) and the explicit array form (recipients/amounts); the
// server canonicalises either into a voucher.Voucher before it reaches
// State. Exactly one of the two forms must be populated.
type voucherRequest struct {
	ChannelID      string   `json:"channelId" binding:"required"`
	SequenceNumber uint64   `json:"sequenceNumber"`
	Timestamp      int64    `json:"timestamp" binding:"required"`
	UserSignature  string   `json:"userSignature" binding:"required"`
	Purpose        string   `json:"purpose"`
	Amount         string   `json:"amount"`
	Receiver       string   `json:"receiver"`
	Recipients     []string `json:"recipients"`
	Amounts        []string `json:"amounts"`
}

func (r voucherRequest) parse() (*voucher.Voucher, error) {
	const op = "api.parseVoucherRequest"

	idBytes, err := hexutil.Decode(r.ChannelID)
	if err != nil || len(idBytes) != 32 {
		return nil, errs.New(errs.MalformedRequest, op, "channelId must be a 32-byte hex string")
	}
	var channelID [32]byte
	copy(channelID[:], idBytes)

	sigBytes, err := hexutil.Decode(r.UserSignature)
	if err != nil {
		return nil, errs.New(errs.MalformedRequest, op, "userSignature must be hex-encoded")
	}

	recipients, amounts, err := r.canonicalRecipients()
	if err != nil {
		return nil, err
	}

	return &voucher.Voucher{
		ChannelID:      channelID,
		SequenceNumber: r.SequenceNumber,
		Timestamp:      r.Timestamp,
		Recipients:     recipients,
		Amounts:        amounts,
		UserSignature:  sigBytes,
	}, nil
}

// canonicalRecipients maps either wire form onto the array form State
// requires, per the single-recipient/array-form open question.
func (r voucherRequest) canonicalRecipients() ([]common.Address, []*big.Int, error) {
	const op = "api.canonicalRecipients"

	if len(r.Recipients) > 0 || len(r.Amounts) > 0 {
		if len(r.Recipients) != len(r.Amounts) {
			return nil, nil, errs.New(errs.MalformedRequest, op, "recipients and amounts length mismatch")
		}
		recipients := make([]common.Address, len(r.Recipients))
		amounts := make([]*big.Int, len(r.Amounts))
		for i, addr := range r.Recipients {
			if !common.IsHexAddress(addr) {
				return nil, nil, errs.New(errs.MalformedRequest, op, "recipient must be a 20-byte hex address")
			}
			recipients[i] = common.HexToAddress(addr)
			amount, ok := new(big.Int).SetString(r.Amounts[i], 10)
			if !ok || amount.Sign() < 0 {
				return nil, nil, errs.New(errs.MalformedRequest, op, "amount must be a non-negative decimal integer string")
			}
			amounts[i] = amount
		}
		return recipients, amounts, nil
	}

	if r.Receiver == "" || r.Amount == "" {
		return nil, nil, errs.New(errs.MalformedRequest, op, "either recipients/amounts or receiver/amount must be set")
	}
	if !common.IsHexAddress(r.Receiver) {
		return nil, nil, errs.New(errs.MalformedRequest, op, "receiver must be a 20-byte hex address")
	}
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, nil, errs.New(errs.MalformedRequest, op, "amount must be a non-negative decimal integer string")
	}
	return []common.Address{common.HexToAddress(r.Receiver)}, []*big.Int{amount}, nil
}

// finalizeRequest is the body of POST /channel/finalize.
type finalizeRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
}

func (r finalizeRequest) parse() ([32]byte, error) {
	var channelID [32]byte
	idBytes, err := hexutil.Decode(r.ChannelID)
	if err != nil || len(idBytes) != 32 {
		return channelID, errs.New(errs.MalformedRequest, "api.parseFinalizeRequest", "channelId must be a 32-byte hex string")
	}
	copy(channelID[:], idBytes)
	return channelID, nil
}

// channelResponse is the wire shape of a Channel record.
type channelResponse struct {
	ChannelID          string              `json:"channelId"`
	Owner              string              `json:"owner"`
	Balance            string              `json:"balance"`
	ExpiryTimestamp    int64               `json:"expiryTimestamp"`
	SequenceNumber     uint64              `json:"sequenceNumber"`
	UserSignature      string              `json:"userSignature"`
	SequencerSignature string              `json:"sequencerSignature"`
	SignatureTimestamp int64               `json:"signatureTimestamp"`
	Finalized          bool                `json:"finalized"`
	Recipients         []recipientResponse `json:"recipients"`
}

type recipientResponse struct {
	RecipientAddress string `json:"recipientAddress"`
	Balance          string `json:"balance"`
}

func toChannelResponse(ch *state.Channel) channelResponse {
	recipients := make([]recipientResponse, len(ch.Recipients))
	for i, r := range ch.Recipients {
		recipients[i] = recipientResponse{
			RecipientAddress: r.Address.Hex(),
			Balance:          r.Balance.String(),
		}
	}
	return channelResponse{
		ChannelID:          hexutil.Encode(ch.ChannelID[:]),
		Owner:              ch.Owner.Hex(),
		Balance:            ch.Balance.String(),
		ExpiryTimestamp:    ch.ExpiryTimestamp,
		SequenceNumber:     ch.SequenceNumber,
		UserSignature:      hexutil.Encode(ch.UserSignature),
		SequencerSignature: hexutil.Encode(ch.SequencerSignature),
		SignatureTimestamp: ch.SignatureTimestamp,
		Finalized:          ch.Finalized,
		Recipients:         recipients,
	}
}
