package voucher

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	testChainID      = big.NewInt(12345)
	testContractAddr = common.HexToAddress("0xDeAdBeEfDeAdBeEfDeAdBeEfDeAdBeEfDeAdBeEf")
)

// ── packed encoding ──────────────────────────────────────────────────────────

func TestBuildRecipientsPacked_Empty(t *testing.T) {
	got := BuildRecipientsPacked(nil)
	if len(got) != 0 {
		t.Fatalf("expected zero-length packed buffer, got %d bytes", len(got))
	}
	h := crypto.Keccak256Hash(got)
	want := crypto.Keccak256Hash(nil)
	if h != want {
		t.Fatal("empty recipients should hash to keccak256(\"\")")
	}
}

func TestBuildAmountsPacked_Empty(t *testing.T) {
	got := BuildAmountsPacked(nil)
	if len(got) != 0 {
		t.Fatalf("expected zero-length packed buffer, got %d bytes", len(got))
	}
}

func TestBuildRecipientsPacked_Deterministic(t *testing.T) {
	rs := []common.Address{
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}
	a := BuildRecipientsPacked(rs)
	b := BuildRecipientsPacked(rs)
	if string(a) != string(b) {
		t.Fatal("BuildRecipientsPacked is not deterministic")
	}
	if len(a) != 40 {
		t.Fatalf("expected 40 tightly-packed bytes for 2 addresses, got %d", len(a))
	}
}

// ── domain separator ─────────────────────────────────────────────────────────

func TestDomainSeparator_Stable(t *testing.T) {
	sep1 := DomainSeparator(testChainID, testContractAddr)
	sep2 := DomainSeparator(testChainID, testContractAddr)
	if sep1 != sep2 {
		t.Fatal("DomainSeparator is not stable")
	}
}

func TestDomainSeparator_ChainIDDiff(t *testing.T) {
	sep1 := DomainSeparator(big.NewInt(1), testContractAddr)
	sep2 := DomainSeparator(big.NewInt(2), testContractAddr)
	if sep1 == sep2 {
		t.Fatal("different chainIDs should produce different separators")
	}
}

func TestDomainSeparator_ContractDiff(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	sep1 := DomainSeparator(testChainID, testContractAddr)
	sep2 := DomainSeparator(testChainID, other)
	if sep1 == sep2 {
		t.Fatal("different verifying contracts should produce different separators")
	}
}

// ── digest + sign/verify ──────────────────────────────────────────────────────

func newSignedVoucher(t *testing.T, seq uint64, recipients []common.Address, amounts []*big.Int) (*Voucher, common.Address) {
	t.Helper()
	privKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	owner := crypto.PubkeyToAddress(privKey.PublicKey)

	v := &Voucher{
		ChannelID:      [32]byte{0x01},
		SequenceNumber: seq,
		Timestamp:      1_700_000_000,
		Recipients:     recipients,
		Amounts:        amounts,
	}
	digest := Digest(v.ChannelID, v.SequenceNumber, v.Timestamp, v.Recipients, v.Amounts, testChainID, testContractAddr)
	sig, err := Cosign(digest, privKey)
	if err != nil {
		t.Fatalf("Cosign: %v", err)
	}
	v.UserSignature = sig
	return v, owner
}

func TestDigest_Deterministic(t *testing.T) {
	recipients := []common.Address{common.HexToAddress("0xB000000000000000000000000000000000000B")}
	amounts := []*big.Int{big.NewInt(10_000)}

	d1 := Digest([32]byte{0x01}, 1, 100, recipients, amounts, testChainID, testContractAddr)
	d2 := Digest([32]byte{0x01}, 1, 100, recipients, amounts, testChainID, testContractAddr)
	if d1 != d2 {
		t.Fatal("Digest is not deterministic")
	}
}

func TestDigest_EmptyArraysSeedVoucher(t *testing.T) {
	d := Digest([32]byte{0x02}, 0, 100, nil, nil, testChainID, testContractAddr)
	var zero [32]byte
	if d == zero {
		t.Fatal("digest over empty recipients/amounts should not be the zero hash")
	}
}

func TestVerify_RecoverEqualsOwner(t *testing.T) {
	recipients := []common.Address{common.HexToAddress("0xB000000000000000000000000000000000000B")}
	amounts := []*big.Int{big.NewInt(10_000)}
	v, owner := newSignedVoucher(t, 1, recipients, amounts)

	if err := Verify(v, owner, testChainID, testContractAddr); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_WrongOwnerFails(t *testing.T) {
	recipients := []common.Address{common.HexToAddress("0xB000000000000000000000000000000000000B")}
	amounts := []*big.Int{big.NewInt(10_000)}
	v, _ := newSignedVoucher(t, 1, recipients, amounts)

	wrongOwner := common.HexToAddress("0x0000000000000000000000000000000000000001")
	if err := Verify(v, wrongOwner, testChainID, testContractAddr); err == nil {
		t.Fatal("expected BadSignature error for wrong owner")
	}
}

func TestVerify_TamperedAmountFails(t *testing.T) {
	recipients := []common.Address{common.HexToAddress("0xB000000000000000000000000000000000000B")}
	amounts := []*big.Int{big.NewInt(10_000)}
	v, owner := newSignedVoucher(t, 1, recipients, amounts)

	v.Amounts[0] = big.NewInt(999_999)
	if err := Verify(v, owner, testChainID, testContractAddr); err == nil {
		t.Fatal("tampering with amounts should invalidate the signature")
	}
}

func TestVerify_DifferentChainIDFails(t *testing.T) {
	recipients := []common.Address{common.HexToAddress("0xB000000000000000000000000000000000000B")}
	amounts := []*big.Int{big.NewInt(10_000)}
	v, owner := newSignedVoucher(t, 1, recipients, amounts)

	if err := Verify(v, owner, big.NewInt(1), testContractAddr); err == nil {
		t.Fatal("signature should not verify under a different chain ID")
	}
}

func TestVerify_SeedVoucherEmptyArrays(t *testing.T) {
	v, owner := newSignedVoucher(t, 0, nil, nil)
	if err := Verify(v, owner, testChainID, testContractAddr); err != nil {
		t.Fatalf("empty-array voucher should verify cleanly: %v", err)
	}
}
