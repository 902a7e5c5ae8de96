package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamchannel/sequencer/internal/state"
)

// ChannelStore implements state.Store using PostgreSQL.
type ChannelStore struct {
	client *Client
	pool   *pgxpool.Pool
}

// NewChannelStore creates a ChannelStore backed by the given Client.
func NewChannelStore(client *Client) *ChannelStore {
	return &ChannelStore{client: client, pool: client.Pool()}
}

// Init runs embedded migrations, bringing the schema up to date.
func (s *ChannelStore) Init(ctx context.Context) error {
	return s.client.RunMigrations(ctx)
}

// LoadAll returns every persisted channel, keyed by ChannelID.
func (s *ChannelStore) LoadAll(ctx context.Context) (map[[32]byte]*state.Channel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT channel_id, owner, balance, expiry_timestamp, sequence_number,
		       user_signature, sequencer_signature, signature_timestamp, finalized,
		       finalizable_sequence_number, finalizable_timestamp,
		       finalizable_user_signature, finalizable_sequencer_signature
		FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load channels: %w", err)
	}
	defer rows.Close()

	out := make(map[[32]byte]*state.Channel)
	for rows.Next() {
		ch, err := scanChannelRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan channel row: %w", err)
		}
		out[ch.ChannelID] = ch
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate channel rows: %w", err)
	}

	for id, ch := range out {
		recipients, err := s.loadRecipientsFrom(ctx, "channel_recipients", id)
		if err != nil {
			return nil, err
		}
		ch.Recipients = recipients

		finalizable, err := s.loadRecipientsFrom(ctx, "channel_finalizable_recipients", id)
		if err != nil {
			return nil, err
		}
		ch.FinalizableRecipients = finalizable
	}
	return out, nil
}

// loadRecipientsFrom loads recipient rows from either channel_recipients or
// channel_finalizable_recipients, ordered by the position each recipient
// was admitted at rather than by address, so a reload preserves the order
// Manager's in-memory merge produced.
func (s *ChannelStore) loadRecipientsFrom(ctx context.Context, table string, channelID [32]byte) ([]state.RecipientBalance, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT address, balance FROM %s WHERE channel_id = $1 ORDER BY position`, table),
		channelID[:])
	if err != nil {
		return nil, fmt.Errorf("postgres: load recipients from %s for %x: %w", table, channelID, err)
	}
	defer rows.Close()

	var out []state.RecipientBalance
	for rows.Next() {
		var addrBytes []byte
		var balanceStr string
		if err := rows.Scan(&addrBytes, &balanceStr); err != nil {
			return nil, fmt.Errorf("postgres: scan recipient row from %s: %w", table, err)
		}
		balance, ok := new(big.Int).SetString(balanceStr, 10)
		if !ok {
			return nil, fmt.Errorf("postgres: invalid recipient balance %q", balanceStr)
		}
		out = append(out, state.RecipientBalance{
			Address: common.BytesToAddress(addrBytes),
			Balance: balance,
		})
	}
	return out, rows.Err()
}

// Upsert durably writes the entire state of one channel, replacing its
// recipient rows, inside a single transaction.
func (s *ChannelStore) Upsert(ctx context.Context, ch *state.Channel) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsertChannel = `
		INSERT INTO channels (
			channel_id, owner, balance, expiry_timestamp, sequence_number,
			user_signature, sequencer_signature, signature_timestamp, finalized,
			finalizable_sequence_number, finalizable_timestamp,
			finalizable_user_signature, finalizable_sequencer_signature, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (channel_id) DO UPDATE SET
			owner = EXCLUDED.owner,
			balance = EXCLUDED.balance,
			expiry_timestamp = EXCLUDED.expiry_timestamp,
			sequence_number = EXCLUDED.sequence_number,
			user_signature = EXCLUDED.user_signature,
			sequencer_signature = EXCLUDED.sequencer_signature,
			signature_timestamp = EXCLUDED.signature_timestamp,
			finalized = EXCLUDED.finalized,
			finalizable_sequence_number = EXCLUDED.finalizable_sequence_number,
			finalizable_timestamp = EXCLUDED.finalizable_timestamp,
			finalizable_user_signature = EXCLUDED.finalizable_user_signature,
			finalizable_sequencer_signature = EXCLUDED.finalizable_sequencer_signature,
			updated_at = NOW()`

	_, err = tx.Exec(ctx, upsertChannel,
		ch.ChannelID[:], ch.Owner.Bytes(), ch.Balance.String(), ch.ExpiryTimestamp, ch.SequenceNumber,
		nullableBytes(ch.UserSignature), nullableBytes(ch.SequencerSignature), ch.SignatureTimestamp, ch.Finalized,
		ch.FinalizableSequenceNumber, ch.FinalizableTimestamp,
		nullableBytes(ch.FinalizableUserSignature), nullableBytes(ch.FinalizableSequencerSignature),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert channel %x: %w", ch.ChannelID, err)
	}

	if err := upsertRecipients(ctx, tx, "channel_recipients", ch.ChannelID, ch.Recipients); err != nil {
		return err
	}
	if err := upsertRecipients(ctx, tx, "channel_finalizable_recipients", ch.ChannelID, ch.FinalizableRecipients); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit upsert for %x: %w", ch.ChannelID, err)
	}
	return nil
}

// upsertRecipients replaces every recipient row for channelID in table,
// writing position so a later load can reconstruct insertion order.
func upsertRecipients(ctx context.Context, tx pgx.Tx, table string, channelID [32]byte, recipients []state.RecipientBalance) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE channel_id = $1`, table), channelID[:]); err != nil {
		return fmt.Errorf("postgres: clear %s for %x: %w", table, channelID, err)
	}
	for i, r := range recipients {
		_, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (channel_id, position, address, balance) VALUES ($1, $2, $3, $4)`, table),
			channelID[:], i, r.Address.Bytes(), r.Balance.String(),
		)
		if err != nil {
			return fmt.Errorf("postgres: insert into %s for %x: %w", table, channelID, err)
		}
	}
	return nil
}

// FindByOwner returns the channel IDs owned by addr.
func (s *ChannelStore) FindByOwner(ctx context.Context, owner [20]byte) ([][32]byte, error) {
	rows, err := s.pool.Query(ctx, `SELECT channel_id FROM channels WHERE owner = $1`, owner[:])
	if err != nil {
		return nil, fmt.Errorf("postgres: find by owner: %w", err)
	}
	defer rows.Close()

	var out [][32]byte
	for rows.Next() {
		var idBytes []byte
		if err := rows.Scan(&idBytes); err != nil {
			return nil, fmt.Errorf("postgres: scan channel id: %w", err)
		}
		var id [32]byte
		copy(id[:], idBytes)
		out = append(out, id)
	}
	return out, rows.Err()
}

// FindExpiredBefore returns channel IDs whose expiry timestamp is older
// than cutoff and which never settled past sequence 0, plus any channel
// already finalized. A channel that accrued real sequence progress but is
// not yet finalized is left in place even past expiry, since pruning it
// would discard the sequencer's only record of a disputable on-chain
// claim.
func (s *ChannelStore) FindExpiredBefore(ctx context.Context, cutoff int64) ([][32]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT channel_id FROM channels WHERE (expiry_timestamp < $1 AND sequence_number = 0) OR finalized = TRUE`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: find expired: %w", err)
	}
	defer rows.Close()

	var out [][32]byte
	for rows.Next() {
		var idBytes []byte
		if err := rows.Scan(&idBytes); err != nil {
			return nil, fmt.Errorf("postgres: scan expired channel id: %w", err)
		}
		var id [32]byte
		copy(id[:], idBytes)
		out = append(out, id)
	}
	return out, rows.Err()
}

// Delete permanently removes a channel record and its recipient rows.
func (s *ChannelStore) Delete(ctx context.Context, channelID [32]byte) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID[:])
	if err != nil {
		return fmt.Errorf("postgres: delete channel %x: %w", channelID, err)
	}
	return nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func scanChannelRow(row pgx.Rows) (*state.Channel, error) {
	var ch state.Channel
	var idBytes, ownerBytes []byte
	var balanceStr string
	var userSig, sequencerSig []byte
	var finalizableTimestamp *int64
	var finalizableUserSig, finalizableSequencerSig []byte

	err := row.Scan(
		&idBytes, &ownerBytes, &balanceStr, &ch.ExpiryTimestamp, &ch.SequenceNumber,
		&userSig, &sequencerSig, &ch.SignatureTimestamp, &ch.Finalized,
		&ch.FinalizableSequenceNumber, &finalizableTimestamp,
		&finalizableUserSig, &finalizableSequencerSig,
	)
	if err != nil {
		return nil, err
	}

	copy(ch.ChannelID[:], idBytes)
	ch.Owner = common.BytesToAddress(ownerBytes)
	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q for channel %x", balanceStr, ch.ChannelID)
	}
	ch.Balance = balance
	ch.UserSignature = userSig
	ch.SequencerSignature = sequencerSig
	if finalizableTimestamp != nil {
		ch.FinalizableTimestamp = *finalizableTimestamp
	}
	ch.FinalizableUserSignature = finalizableUserSig
	ch.FinalizableSequencerSignature = finalizableSequencerSig
	return &ch, nil
}
