package voucher

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Voucher is the payer-signed cumulative-amount claim submitted to /validate
// and /settle. Amounts are cumulative across the channel's lifetime, not
// per-voucher deltas; Recipients and Amounts are parallel slices.
type Voucher struct {
	ChannelID      [32]byte         `json:"channelId"`
	SequenceNumber uint64           `json:"sequenceNumber"`
	Timestamp      int64            `json:"timestamp"`
	Recipients     []common.Address `json:"recipients"`
	Amounts        []*big.Int       `json:"amounts"`
	UserSignature  []byte           `json:"userSignature"`
}
