package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Channel is the unit of authoritative off-chain state. Balance is the
// immutable deposit recorded at seed time; it is never mutated by settle.
// The capacity still available for future allocations is derived as
// Balance minus the sum of all recipient balances.
type Channel struct {
	ChannelID          [32]byte
	Owner              common.Address
	Balance            *big.Int
	ExpiryTimestamp    int64
	SequenceNumber     uint64
	Recipients         []RecipientBalance
	UserSignature      []byte
	SequencerSignature []byte
	SignatureTimestamp int64
	// Finalized marks a channel whose last admitted state has been pushed
	// on-chain via Settlement.Finalize; once true no further settle may
	// succeed.
	Finalized bool

	// The Finalizable* fields hold the most recently admitted voucher whose
	// recipients[] array covered every recipient known to the channel at
	// admission time, the only kind of voucher whose userSignature is
	// valid over a full recipients/amounts array and therefore safe to
	// replay into finalCloseBySequencer. A settle against a narrower,
	// single-recipient array (see mergeRecipients) updates Recipients but
	// leaves these fields untouched.
	FinalizableSequenceNumber     uint64
	FinalizableTimestamp          int64
	FinalizableRecipients         []RecipientBalance
	FinalizableUserSignature      []byte
	FinalizableSequencerSignature []byte
}

// RecipientBalance holds one recipient's cumulative, monotone-non-decreasing
// amount owed across the channel's lifetime.
type RecipientBalance struct {
	Address common.Address
	Balance *big.Int
}

// Clone deep-copies a Channel so callers holding a snapshot never observe a
// later in-place mutation.
func (c *Channel) Clone() *Channel {
	clone := *c
	clone.Balance = new(big.Int).Set(c.Balance)
	clone.Recipients = make([]RecipientBalance, len(c.Recipients))
	for i, r := range c.Recipients {
		clone.Recipients[i] = RecipientBalance{Address: r.Address, Balance: new(big.Int).Set(r.Balance)}
	}
	clone.UserSignature = append([]byte(nil), c.UserSignature...)
	clone.SequencerSignature = append([]byte(nil), c.SequencerSignature...)
	clone.FinalizableRecipients = make([]RecipientBalance, len(c.FinalizableRecipients))
	for i, r := range c.FinalizableRecipients {
		clone.FinalizableRecipients[i] = RecipientBalance{Address: r.Address, Balance: new(big.Int).Set(r.Balance)}
	}
	clone.FinalizableUserSignature = append([]byte(nil), c.FinalizableUserSignature...)
	clone.FinalizableSequencerSignature = append([]byte(nil), c.FinalizableSequencerSignature...)
	return &clone
}

// recipientIndex returns the position of addr in the recipients slice, or -1.
func recipientIndex(recipients []RecipientBalance, addr common.Address) int {
	for i, r := range recipients {
		if r.Address == addr {
			return i
		}
	}
	return -1
}
