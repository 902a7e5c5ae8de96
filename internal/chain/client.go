package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/streamchannel/sequencer/internal/errs"
	"github.com/streamchannel/sequencer/internal/voucher"
)

// Client wraps go-ethereum and the generated StreamChannel binding, and
// owns the sequencer's on-chain identity check at boot.
type Client struct {
	eth          *ethclient.Client
	contract     *StreamChannel
	contractAddr common.Address
	chainID      *big.Int
	signingKey   *ecdsa.PrivateKey
}

// Config is the subset of chain connection parameters the Client needs.
type Config struct {
	RPCURL          string
	ContractAddress string
	ChainID         int64
	PrivateKeyHex   string
}

// NewClient dials the configured RPC endpoint, binds the StreamChannel
// contract, and loads the sequencer's signing key.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial rpc: %w", err)
	}

	privKey, err := crypto.HexToECDSA(cfg.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("chain: parse sequencer private key: %w", err)
	}

	addr := common.HexToAddress(cfg.ContractAddress)
	contract, err := NewStreamChannel(addr, eth)
	if err != nil {
		return nil, fmt.Errorf("chain: bind contract: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = eth.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("chain: auto-detect chain id: %w", err)
		}
	}

	return &Client{
		eth:          eth,
		contract:     contract,
		contractAddr: addr,
		chainID:      chainID,
		signingKey:   privKey,
	}, nil
}

// PrivateKey returns the key this client signs transactions with. Voucher
// cosigning does not use it; that goes through state.Manager's Signer.
func (c *Client) PrivateKey() *ecdsa.PrivateKey { return c.signingKey }

// ChainID returns the configured chain ID.
func (c *Client) ChainID() *big.Int { return c.chainID }

// ContractAddress returns the StreamChannel contract address.
func (c *Client) ContractAddress() common.Address { return c.contractAddr }

// VerifyIdentity confirms that the configured signing key matches the
// sequencer address the on-chain contract was deployed with. A mismatch
// means the sequencer would publish signatures the contract will never
// accept; this must be checked at boot, before serving traffic.
func (c *Client) VerifyIdentity(ctx context.Context) error {
	const op = "chain.VerifyIdentity"
	onChain, err := c.contract.Sequencer(&bind.CallOpts{Context: ctx})
	if err != nil {
		return errs.Wrap(errs.StorageFailure, op, fmt.Errorf("read sequencer(): %w", err))
	}
	configured := crypto.PubkeyToAddress(c.signingKey.PublicKey)
	if onChain != configured {
		return errs.New(errs.StorageFailure, op,
			fmt.Sprintf("configured signing key %s does not match on-chain sequencer %s", configured, onChain))
	}
	return nil
}

// transactOpts builds a *bind.TransactOpts signed by the sequencer key.
func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.signingKey, c.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	return auth, nil
}

// PublishIntermediateState pushes a dually-signed intermediate channel
// state on-chain, without closing the channel. Used for optional
// checkpointing of long-lived channels.
func (c *Client) PublishIntermediateState(ctx context.Context, v *voucher.Voucher, sequencerSig []byte) (*types.Receipt, error) {
	const op = "chain.PublishIntermediateState"
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, op, err)
	}

	tx, err := c.contract.PublishIntermediateChannelState(
		opts, v.ChannelID,
		new(big.Int).SetUint64(v.SequenceNumber), big.NewInt(v.Timestamp),
		v.Recipients, v.Amounts,
		v.UserSignature, sequencerSig,
	)
	if err != nil {
		return nil, errs.Wrap(errs.SettlementRevert, op, err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, errs.Wrap(errs.Timeout, op, err)
	}
	if receipt.Status == 0 {
		return nil, errs.New(errs.SettlementRevert, op, "publishIntermediateChannelState tx reverted")
	}
	return receipt, nil
}

// Finalize closes a channel on-chain with its last dually-signed state,
// paying out the recorded recipient balances. The contract authenticates
// the sequencer via msg.sender (checked against its stored sequencer()
// address at VerifyIdentity time), so only the payer's signature over v
// travels in calldata; there is no on-chain slot for a sequencer signature.
func (c *Client) Finalize(ctx context.Context, v *voucher.Voucher) (*types.Receipt, error) {
	const op = "chain.Finalize"
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, op, err)
	}

	tx, err := c.contract.FinalCloseBySequencer(
		opts, v.ChannelID,
		new(big.Int).SetUint64(v.SequenceNumber), big.NewInt(v.Timestamp),
		v.Recipients, v.Amounts,
		v.UserSignature,
	)
	if err != nil {
		return nil, errs.Wrap(errs.SettlementRevert, op, err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, errs.Wrap(errs.Timeout, op, err)
	}
	if receipt.Status == 0 {
		return nil, errs.New(errs.SettlementRevert, op, "finalCloseBySequencer tx reverted")
	}
	return receipt, nil
}

// GetChannel reads the on-chain channel record, used by cmd/inspect and by
// reconciliation tooling; the sequencer's own in-memory/store state remains
// authoritative for live traffic.
func (c *Client) GetChannel(ctx context.Context, channelID [32]byte) (owner common.Address, balance, sequenceNumber *big.Int, closed bool, err error) {
	result, err := c.contract.GetChannel(&bind.CallOpts{Context: ctx}, channelID)
	if err != nil {
		return common.Address{}, nil, nil, false, fmt.Errorf("chain: GetChannel: %w", err)
	}
	return result.Owner, result.Balance, result.SequenceNumber, result.Closed, nil
}
