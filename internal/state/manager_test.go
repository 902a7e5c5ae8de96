package state

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/streamchannel/sequencer/internal/errs"
	"github.com/streamchannel/sequencer/internal/voucher"
)

var (
	testChainID      = big.NewInt(998877)
	testContractAddr = common.HexToAddress("0xC0FFEE00000000000000000000000000000000")
)

// rawKeySigner satisfies Signer directly from an in-memory key, for tests
// that have no need for keyring's enclave-sealing.
type rawKeySigner struct {
	key *ecdsa.PrivateKey
}

func (s rawKeySigner) Cosign(digest [32]byte) ([]byte, error) {
	return voucher.Cosign(digest, s.key)
}

type harness struct {
	mgr     *Manager
	owner   common.Address
	ownerPK *ecdsa.PrivateKey
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	owner := crypto.PubkeyToAddress(pk.PublicKey)

	seqKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	store := newMemStore()
	mgr := NewManager(store, rawKeySigner{key: seqKey}, testChainID, testContractAddr, nil)
	if err := mgr.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return &harness{mgr: mgr, owner: owner, ownerPK: pk}
}

func (h *harness) sign(t *testing.T, channelID [32]byte, seq uint64, ts int64, recipients []common.Address, amounts []*big.Int) *voucher.Voucher {
	t.Helper()
	v := &voucher.Voucher{
		ChannelID:      channelID,
		SequenceNumber: seq,
		Timestamp:      ts,
		Recipients:     recipients,
		Amounts:        amounts,
	}
	digest := voucher.Digest(channelID, seq, ts, recipients, amounts, testChainID, testContractAddr)
	sig, err := voucher.Cosign(digest, h.ownerPK)
	if err != nil {
		t.Fatal(err)
	}
	v.UserSignature = sig
	return v
}

func wantKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	if got := errs.KindOf(err); got != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, got, err)
	}
}

// Scenario A: seed, then a first settle for 10_000 to one recipient succeeds.
func TestScenario_SeedThenFirstSettle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xA1}
	expiry := time.Now().Add(24 * time.Hour).Unix()

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")
	v := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(10_000)})

	ch, err := h.mgr.Settle(ctx, v)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if ch.SequenceNumber != 1 {
		t.Fatalf("expected sequence 1, got %d", ch.SequenceNumber)
	}
	if len(ch.SequencerSignature) != 65 {
		t.Fatalf("expected 65-byte sequencer signature, got %d", len(ch.SequencerSignature))
	}
}

// Scenario B: a strictly higher sequence number with a larger cumulative
// amount succeeds and supersedes the prior state.
func TestScenario_MonotoneProgression(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xB2}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	v1 := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(10_000)})
	if _, err := h.mgr.Settle(ctx, v1); err != nil {
		t.Fatalf("Settle v1: %v", err)
	}

	v2 := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(25_000)})
	ch, err := h.mgr.Settle(ctx, v2)
	if err != nil {
		t.Fatalf("Settle v2: %v", err)
	}
	if ch.SequenceNumber != 2 {
		t.Fatalf("expected sequence 2, got %d", ch.SequenceNumber)
	}
	if ch.Recipients[0].Balance.Cmp(big.NewInt(25_000)) != 0 {
		t.Fatalf("expected recipient balance 25000, got %s", ch.Recipients[0].Balance)
	}
}

// Scenario C: a lower cumulative amount at a higher sequence is rejected as
// an amount regression.
func TestScenario_AmountRegressionRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xC3}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	v1 := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(25_000)})
	if _, err := h.mgr.Settle(ctx, v1); err != nil {
		t.Fatalf("Settle v1: %v", err)
	}

	v2 := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(20_000)})
	_, err := h.mgr.Settle(ctx, v2)
	wantKind(t, err, errs.AmountRegression)
}

// Scenario D: cumulative amounts exceeding the channel deposit are rejected
// as insolvent.
func TestScenario_InsolventRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xD4}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	v := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(2_000_000)})
	_, err := h.mgr.Settle(ctx, v)
	wantKind(t, err, errs.Insolvent)
}

// Scenario E: a stale (non-increasing) sequence number is rejected.
func TestScenario_StaleSequenceRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xE5}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	v1 := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(10_000)})
	if _, err := h.mgr.Settle(ctx, v1); err != nil {
		t.Fatalf("Settle v1: %v", err)
	}

	v2 := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(15_000)})
	_, err := h.mgr.Settle(ctx, v2)
	wantKind(t, err, errs.StaleSequence)
}

// Scenario F: two concurrent settles at sequences 3 and 4 race. Either both
// are admitted in the order 3 then 4, or 4 lands first and 3 is rejected as
// stale; in both cases the committed state ends at sequence 4.
func TestScenario_ConcurrentSettleRace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xF6}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	seed := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(20_000)})
	if _, err := h.mgr.Settle(ctx, seed); err != nil {
		t.Fatalf("Settle seed: %v", err)
	}

	v3 := h.sign(t, channelID, 3, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(30_000)})
	v4 := h.sign(t, channelID, 4, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(40_000)})

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = h.mgr.Settle(ctx, v3)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = h.mgr.Settle(ctx, v4)
	}()
	wg.Wait()

	if results[1] != nil {
		t.Fatalf("settle at sequence 4 must succeed in either arrival order: %v", results[1])
	}
	if results[0] != nil {
		wantKind(t, results[0], errs.StaleSequence)
	}

	final, err := h.mgr.Get(channelID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.SequenceNumber != 4 {
		t.Fatalf("expected final sequence 4 (highest wins), got %d", final.SequenceNumber)
	}
	if final.Recipients[0].Balance.Cmp(big.NewInt(40_000)) != 0 {
		t.Fatalf("expected final balance 40000, got %s", final.Recipients[0].Balance)
	}
}

// Scenario G: settling against an unknown channel fails NotFound; settling
// past expiry fails Expired.
func TestScenario_NotFoundAndExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	unknown := [32]byte{0x99}
	v := h.sign(t, unknown, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(1)})
	_, err := h.mgr.Settle(ctx, v)
	wantKind(t, err, errs.NotFound)

	channelID := [32]byte{0xE1}
	pastExpiry := time.Now().Add(-time.Hour).Unix()
	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), pastExpiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	v2 := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(1)})
	_, err = h.mgr.Settle(ctx, v2)
	wantKind(t, err, errs.Expired)
}

// Multi-recipient channels settled via separate, single-recipient vouchers
// must still be bounded by the channel deposit in aggregate: a recipient
// absent from the current voucher keeps its previously admitted balance,
// and that balance counts against solvency.
func TestSettle_MultiRecipientStaggered_InsolventAcrossVouchers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0x5A}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipientC := common.HexToAddress("0xC000000000000000000000000000000000000C")
	recipientD := common.HexToAddress("0xD000000000000000000000000000000000000D")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	vC := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipientC}, []*big.Int{big.NewInt(900_000)})
	ch, err := h.mgr.Settle(ctx, vC)
	if err != nil {
		t.Fatalf("Settle recipient C: %v", err)
	}
	if ch.SequenceNumber != 1 {
		t.Fatalf("expected sequence 1, got %d", ch.SequenceNumber)
	}

	// recipient D alone is within the deposit, but C's 900_000 is still
	// outstanding against the same 1_000_000 balance: 900_000 + 500_000
	// exceeds the deposit and must be rejected as insolvent.
	vD := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipientD}, []*big.Int{big.NewInt(500_000)})
	_, err = h.mgr.Settle(ctx, vD)
	wantKind(t, err, errs.Insolvent)

	// A smaller amount for D that keeps the merged total within the
	// deposit succeeds, and both recipients' balances are retained.
	vD2 := h.sign(t, channelID, 2, time.Now().Unix(), []common.Address{recipientD}, []*big.Int{big.NewInt(100_000)})
	final, err := h.mgr.Settle(ctx, vD2)
	if err != nil {
		t.Fatalf("Settle recipient D within bound: %v", err)
	}
	if len(final.Recipients) != 2 {
		t.Fatalf("expected 2 recipients retained, got %d", len(final.Recipients))
	}
	if idx := recipientIndex(final.Recipients, recipientC); idx < 0 || final.Recipients[idx].Balance.Cmp(big.NewInt(900_000)) != 0 {
		t.Fatalf("expected recipient C balance to remain 900000")
	}
	if idx := recipientIndex(final.Recipients, recipientD); idx < 0 || final.Recipients[idx].Balance.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("expected recipient D balance 100000")
	}
}

func TestSeed_DuplicateRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xAB}
	expiry := time.Now().Add(24 * time.Hour).Unix()

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	_, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry)
	wantKind(t, err, errs.AlreadyExists)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	channelID := [32]byte{0xCD}
	expiry := time.Now().Add(24 * time.Hour).Unix()
	recipient := common.HexToAddress("0xB000000000000000000000000000000000000B")

	if _, err := h.mgr.Seed(ctx, channelID, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	v := h.sign(t, channelID, 1, time.Now().Unix(), []common.Address{recipient}, []*big.Int{big.NewInt(10_000)})
	if err := h.mgr.Validate(v); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ch, err := h.mgr.Get(channelID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ch.SequenceNumber != 0 {
		t.Fatalf("Validate must not mutate state, sequence is now %d", ch.SequenceNumber)
	}
}

func TestListByOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	expiry := time.Now().Add(24 * time.Hour).Unix()

	a := [32]byte{0x01}
	b := [32]byte{0x02}
	if _, err := h.mgr.Seed(ctx, a, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatal(err)
	}
	if _, err := h.mgr.Seed(ctx, b, h.owner, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatal(err)
	}

	other := common.HexToAddress("0x1234000000000000000000000000000000000a")
	c := [32]byte{0x03}
	if _, err := h.mgr.Seed(ctx, c, other, big.NewInt(1_000_000), expiry); err != nil {
		t.Fatal(err)
	}

	ids := h.mgr.ListByOwner(h.owner)
	if len(ids) != 2 {
		t.Fatalf("expected 2 channels for owner, got %d", len(ids))
	}
}
