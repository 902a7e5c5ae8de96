package voucher

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/streamchannel/sequencer/internal/errs"
)

// Domain constants. Any deviation here is a total-failure bug: signatures
// will verify off-chain but be rejected by the on-chain verifier, or vice
// versa. Keep these single-sourced.
const (
	DomainName    = "StreamChannel"
	DomainVersion = "1"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))
	channelDataTypeHash = crypto.Keccak256Hash([]byte(
		"ChannelData(bytes32 channelId,uint256 sequenceNumber,uint256 timestamp,address[] recipients,uint256[] amounts)",
	))
)

// DomainSeparator computes the EIP-712 domain separator for a given chain
// and verifying contract.
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) [32]byte {
	nameHash := crypto.Keccak256Hash([]byte(DomainName))
	versionHash := crypto.Keccak256Hash([]byte(DomainVersion))

	encoded := make([]byte, 5*32)
	copy(encoded[0:32], domainTypeHash[:])
	copy(encoded[32:64], nameHash[:])
	copy(encoded[64:96], versionHash[:])
	chainID.FillBytes(encoded[96:128])
	copy(encoded[140:160], verifyingContract.Bytes())

	return crypto.Keccak256Hash(encoded)
}

// BuildRecipientsPacked tightly packs an address array: no length prefix,
// each address emitted in its natural 20-byte width. An empty slice packs
// to a zero-length buffer, whose hash is keccak256(""), per the seed-voucher
// edge case.
func BuildRecipientsPacked(recipients []common.Address) []byte {
	out := make([]byte, 0, 20*len(recipients))
	for _, r := range recipients {
		out = append(out, r.Bytes()...)
	}
	return out
}

// BuildAmountsPacked tightly packs a uint256 array: no length prefix, each
// amount emitted as a 32-byte big-endian word.
func BuildAmountsPacked(amounts []*big.Int) []byte {
	out := make([]byte, 32*len(amounts))
	for i, a := range amounts {
		a.FillBytes(out[i*32 : (i+1)*32])
	}
	return out
}

// Digest computes the final EIP-712 signing digest for a ChannelData
// message: keccak256("\x19\x01" || domainSeparator || structHash).
func Digest(
	channelID [32]byte,
	sequenceNumber uint64,
	timestamp int64,
	recipients []common.Address,
	amounts []*big.Int,
	chainID *big.Int,
	verifyingContract common.Address,
) [32]byte {
	recipientsHash := crypto.Keccak256Hash(BuildRecipientsPacked(recipients))
	amountsHash := crypto.Keccak256Hash(BuildAmountsPacked(amounts))

	encoded := make([]byte, 6*32)
	copy(encoded[0:32], channelDataTypeHash[:])
	copy(encoded[32:64], channelID[:])
	new(big.Int).SetUint64(sequenceNumber).FillBytes(encoded[64:96])
	big.NewInt(timestamp).FillBytes(encoded[96:128])
	copy(encoded[128:160], recipientsHash[:])
	copy(encoded[160:192], amountsHash[:])

	structHash := crypto.Keccak256Hash(encoded)
	sep := DomainSeparator(chainID, verifyingContract)

	msg := make([]byte, 2+32+32)
	msg[0] = 0x19
	msg[1] = 0x01
	copy(msg[2:34], sep[:])
	copy(msg[34:66], structHash[:])
	return crypto.Keccak256Hash(msg)
}

// Verify recovers the signer of v's digest and checks it against owner.
// Returns an *errs.Error with Kind BadSignature on any mismatch or recovery
// failure.
func Verify(v *Voucher, owner common.Address, chainID *big.Int, verifyingContract common.Address) error {
	const op = "voucher.Verify"
	if len(v.UserSignature) != 65 {
		return errs.New(errs.BadSignature, op, "signature must be 65 bytes")
	}

	digest := Digest(v.ChannelID, v.SequenceNumber, v.Timestamp, v.Recipients, v.Amounts, chainID, verifyingContract)

	sig := make([]byte, 65)
	copy(sig, v.UserSignature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return errs.Wrap(errs.BadSignature, op, err)
	}
	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != owner {
		return errs.New(errs.BadSignature, op, "recovered address does not match channel owner")
	}
	return nil
}

// Cosign signs digest with the sequencer's key, normalizing the recovery
// byte to 27/28 for Solidity ecrecover compatibility.
func Cosign(digest [32]byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
