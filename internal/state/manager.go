// Package state implements the authoritative in-memory channel map and the
// concurrency core of the sequencer: per-channel mutation is serialised,
// cross-channel reads proceed freely, and every admitted update is durable
// before it becomes visible to the next settle on the same channel.
package state

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/streamchannel/sequencer/internal/errs"
	"github.com/streamchannel/sequencer/internal/metrics"
	"github.com/streamchannel/sequencer/internal/voucher"
)

// clockSkewTolerance is the maximum allowed lag between a voucher's embedded
// timestamp and the sequencer's own clock.
const clockSkewTolerance = 15 * time.Minute

// channelEntry pairs a Channel with the mutex that serialises its mutation.
// The outer map lock guards insertion/lookup; the per-entry mutex guards
// the channel's fields during settle.
type channelEntry struct {
	mu sync.Mutex
	ch *Channel
}

// Manager is the in-memory authoritative channel map. Reads of distinct
// channels proceed in parallel; two settles on the same channel are
// strictly serialised via that channel's own mutex, which is looked up under
// a read-lock on the outer map and acquired after that read-lock is released.
type Manager struct {
	mapMu    sync.RWMutex
	channels map[[32]byte]*channelEntry

	store        Store
	signer       Signer
	chainID      *big.Int
	contractAddr common.Address
	log          *zap.Logger
}

// NewManager constructs a Manager. Callers must call Bootstrap before
// serving traffic.
func NewManager(store Store, signer Signer, chainID *big.Int, contractAddr common.Address, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		channels:     make(map[[32]byte]*channelEntry),
		store:        store,
		signer:       signer,
		chainID:      chainID,
		contractAddr: contractAddr,
		log:          log,
	}
}

// Bootstrap loads every persisted channel into the in-memory map. Starting,
// stopping, and restarting the sequencer must yield a channel map
// byte-equal to the one before shutdown.
func (m *Manager) Bootstrap(ctx context.Context) error {
	const op = "state.Bootstrap"
	if err := m.store.Init(ctx); err != nil {
		return errs.Wrap(errs.StorageFailure, op, err)
	}
	loaded, err := m.store.LoadAll(ctx)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, op, err)
	}
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	for id, ch := range loaded {
		m.channels[id] = &channelEntry{ch: ch}
	}
	m.log.Info("state bootstrap complete", zap.Int("channels", len(loaded)))
	return nil
}

// entryFor returns the channelEntry for id, taking only a read-lock on the
// outer map — concurrent lookups of distinct channels never block each
// other.
func (m *Manager) entryFor(id [32]byte) (*channelEntry, bool) {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()
	e, ok := m.channels[id]
	return e, ok
}

// Seed inserts a fresh channel at sequenceNumber=0 with no recipients and
// no signatures. Persists before returning. Fails with AlreadyExists if the
// id is already known.
func (m *Manager) Seed(ctx context.Context, channelID [32]byte, owner common.Address, balance *big.Int, expiryTimestamp int64) (*Channel, error) {
	const op = "state.Seed"

	m.mapMu.Lock()
	if _, exists := m.channels[channelID]; exists {
		m.mapMu.Unlock()
		return nil, errs.New(errs.AlreadyExists, op, "channel already seeded")
	}
	// Insert a placeholder entry under the write lock so a concurrent Seed
	// for the same id observes AlreadyExists rather than racing to insert.
	entry := &channelEntry{}
	m.channels[channelID] = entry
	m.mapMu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	ch := &Channel{
		ChannelID:       channelID,
		Owner:           owner,
		Balance:         new(big.Int).Set(balance),
		ExpiryTimestamp: expiryTimestamp,
		SequenceNumber:  0,
		Recipients:      nil,
	}

	if err := m.store.Upsert(ctx, ch); err != nil {
		// Roll back the placeholder: no torn state may be observed.
		m.mapMu.Lock()
		delete(m.channels, channelID)
		m.mapMu.Unlock()
		return nil, errs.Wrap(errs.StorageFailure, op, err)
	}

	entry.ch = ch
	metrics.ChannelsSeededTotal.Inc()
	return ch.Clone(), nil
}

// Get returns a snapshot of the current channel state.
func (m *Manager) Get(channelID [32]byte) (*Channel, error) {
	entry, ok := m.entryFor(channelID)
	if !ok {
		return nil, errs.New(errs.NotFound, "state.Get", "channel not seeded")
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.ch == nil {
		return nil, errs.New(errs.NotFound, "state.Get", "channel not seeded")
	}
	return entry.ch.Clone(), nil
}

// ListByOwner returns the channel IDs owned by addr, scanning the in-memory
// map (no store round-trip — State is the authority for live traffic).
func (m *Manager) ListByOwner(owner common.Address) [][32]byte {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()
	var out [][32]byte
	for id, entry := range m.channels {
		entry.mu.Lock()
		if entry.ch != nil && entry.ch.Owner == owner {
			out = append(out, id)
		}
		entry.mu.Unlock()
	}
	return out
}

// Validate runs the read-only subset of settle's checks (steps 3-9) without
// mutating anything. Safe under a shared read of the channel.
func (m *Manager) Validate(v *voucher.Voucher) error {
	const op = "state.Validate"
	entry, ok := m.entryFor(v.ChannelID)
	if !ok {
		return errs.New(errs.NotFound, op, "channel not seeded")
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.ch == nil {
		return errs.New(errs.NotFound, op, "channel not seeded")
	}
	return m.validateLocked(entry.ch, v, time.Now())
}

func (m *Manager) validateLocked(ch *Channel, v *voucher.Voucher, now time.Time) error {
	const op = "state.validateLocked"

	if now.Unix() > ch.ExpiryTimestamp {
		return errs.New(errs.Expired, op, "channel past expiry")
	}
	if v.Timestamp > ch.ExpiryTimestamp || v.Timestamp < now.Add(-clockSkewTolerance).Unix() {
		return errs.New(errs.BadTimestamp, op, "voucher timestamp out of acceptable window")
	}
	if v.SequenceNumber <= ch.SequenceNumber {
		return errs.New(errs.StaleSequence, op, "sequence number not strictly increasing")
	}
	if len(v.Recipients) != len(v.Amounts) {
		return errs.New(errs.MalformedRequest, op, "recipients and amounts length mismatch")
	}

	// The solvency bound is over the channel's *merged* per-recipient
	// balances, not just this voucher's array: recipients settled in an
	// earlier, disjoint voucher still hold their balance against the same
	// deposit and must be folded into the sum.
	sum := new(big.Int)
	touched := make(map[common.Address]bool, len(v.Recipients))
	for i, addr := range v.Recipients {
		amount := v.Amounts[i]
		if idx := recipientIndex(ch.Recipients, addr); idx >= 0 {
			if amount.Cmp(ch.Recipients[idx].Balance) < 0 {
				return errs.New(errs.AmountRegression, op, "cumulative amount decreased for a recipient")
			}
		}
		sum.Add(sum, amount)
		touched[addr] = true
	}
	for _, r := range ch.Recipients {
		if !touched[r.Address] {
			sum.Add(sum, r.Balance)
		}
	}
	if sum.Cmp(ch.Balance) > 0 {
		return errs.New(errs.Insolvent, op, "cumulative amounts exceed channel deposit")
	}

	return voucher.Verify(v, ch.Owner, m.chainID, m.contractAddr)
}

// Settle is the central algorithm: locate, lock, validate, verify, cosign,
// persist, commit, respond — all under the channel's own mutex.
//
// Persistence precedes the in-memory commit: if the DB write fails the
// channel's observable state remains the prior value. The in-memory commit
// happens before this method returns, so a concurrent settle racing in
// after this one started will always see the latest committed sequence.
func (m *Manager) Settle(ctx context.Context, v *voucher.Voucher) (*Channel, error) {
	start := time.Now()

	result, err := m.settle(ctx, v)

	metrics.SettleLatencySeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SettleRequestsTotal.WithLabelValues(string(errs.KindOf(err))).Inc()
		return nil, err
	}
	metrics.SettleRequestsTotal.WithLabelValues("ok").Inc()
	for _, r := range result.Recipients {
		metrics.ChannelBalanceGauge.WithLabelValues(
			common.Bytes2Hex(result.ChannelID[:]), r.Address.Hex(),
		).Set(bigIntToFloat(r.Balance))
	}
	return result, nil
}

func (m *Manager) settle(ctx context.Context, v *voucher.Voucher) (*Channel, error) {
	const op = "state.Settle"

	entry, ok := m.entryFor(v.ChannelID)
	if !ok {
		return nil, errs.New(errs.NotFound, op, "channel not seeded")
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.ch == nil {
		return nil, errs.New(errs.NotFound, op, "channel not seeded")
	}
	ch := entry.ch
	if ch.Finalized {
		return nil, errs.New(errs.Expired, op, "channel already finalized")
	}

	now := time.Now()
	if err := m.validateLocked(ch, v, now); err != nil {
		return nil, err
	}

	digest := voucher.Digest(v.ChannelID, v.SequenceNumber, v.Timestamp, v.Recipients, v.Amounts, m.chainID, m.contractAddr)
	sequencerSig, err := m.signer.Cosign(digest)
	if err != nil {
		return nil, errs.Wrap(errs.BadSignature, op, err)
	}

	next := mergeRecipients(ch.Recipients, v.Recipients, v.Amounts)
	updated := &Channel{
		ChannelID:          ch.ChannelID,
		Owner:              ch.Owner,
		Balance:            new(big.Int).Set(ch.Balance),
		ExpiryTimestamp:    ch.ExpiryTimestamp,
		SequenceNumber:     v.SequenceNumber,
		Recipients:         next,
		UserSignature:      append([]byte(nil), v.UserSignature...),
		SequencerSignature: sequencerSig,
		SignatureTimestamp: v.Timestamp,

		// carried over unless this voucher itself qualifies, below.
		FinalizableSequenceNumber:     ch.FinalizableSequenceNumber,
		FinalizableTimestamp:          ch.FinalizableTimestamp,
		FinalizableRecipients:         ch.FinalizableRecipients,
		FinalizableUserSignature:      ch.FinalizableUserSignature,
		FinalizableSequencerSignature: ch.FinalizableSequencerSignature,
	}
	if coversAllRecipients(ch.Recipients, v.Recipients) {
		updated.FinalizableSequenceNumber = v.SequenceNumber
		updated.FinalizableTimestamp = v.Timestamp
		updated.FinalizableRecipients = make([]RecipientBalance, len(v.Recipients))
		for i, addr := range v.Recipients {
			updated.FinalizableRecipients[i] = RecipientBalance{Address: addr, Balance: new(big.Int).Set(v.Amounts[i])}
		}
		updated.FinalizableUserSignature = append([]byte(nil), v.UserSignature...)
		updated.FinalizableSequencerSignature = sequencerSig
	}

	// upsert -> commit -> respond, all under entry.mu.
	if err := m.store.Upsert(ctx, updated); err != nil {
		return nil, errs.Wrap(errs.StorageFailure, op, err)
	}
	entry.ch = updated

	return updated.Clone(), nil
}

// bigIntToFloat converts a big.Int amount to a float64 for gauge reporting.
// Precision loss above 2^53 is acceptable: the gauge is an observability
// aid, never an input to a correctness decision.
func bigIntToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// MarkFinalized records that Settlement has successfully closed a channel
// on-chain; no further settle on it may succeed. Persists the flag via
// Store.Upsert under the channel's own mutex.
func (m *Manager) MarkFinalized(ctx context.Context, channelID [32]byte) error {
	const op = "state.MarkFinalized"
	entry, ok := m.entryFor(channelID)
	if !ok {
		return errs.New(errs.NotFound, op, "channel not seeded")
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.ch == nil {
		return errs.New(errs.NotFound, op, "channel not seeded")
	}
	updated := entry.ch.Clone()
	updated.Finalized = true
	if err := m.store.Upsert(ctx, updated); err != nil {
		return errs.Wrap(errs.StorageFailure, op, err)
	}
	entry.ch = updated
	metrics.ChannelsFinalizedTotal.Inc()
	return nil
}

// evict removes a channel from the in-memory map entirely. Used by the
// Sweeper once a channel has been pruned from the store; never called on
// live traffic paths.
func (m *Manager) evict(channelID [32]byte) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	delete(m.channels, channelID)
}

// coversAllRecipients reports whether every address in existing also
// appears in recipients: whether a voucher carrying recipients was signed
// over the channel's entire recipient set, not just a subset.
func coversAllRecipients(existing []RecipientBalance, recipients []common.Address) bool {
	for _, r := range existing {
		found := false
		for _, addr := range recipients {
			if addr == r.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// mergeRecipients returns a new recipients slice with the voucher's
// cumulative amounts applied, preserving existing ordering and appending
// any new recipient at the end.
func mergeRecipients(existing []RecipientBalance, recipients []common.Address, amounts []*big.Int) []RecipientBalance {
	out := make([]RecipientBalance, len(existing))
	copy(out, existing)
	for i, addr := range recipients {
		if idx := recipientIndex(out, addr); idx >= 0 {
			out[idx].Balance = new(big.Int).Set(amounts[i])
		} else {
			out = append(out, RecipientBalance{Address: addr, Balance: new(big.Int).Set(amounts[i])})
		}
	}
	return out
}
