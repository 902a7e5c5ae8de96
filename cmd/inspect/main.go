// Command inspect is a read-only tool for checking a channel's on-chain
// record and the sequencer's configured identity, without touching any
// mutating entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/streamchannel/sequencer/internal/chain"
	"github.com/streamchannel/sequencer/internal/config"
)

func main() {
	channelIDHex := flag.String("channel", "", "channel ID, 32-byte hex")
	flag.Parse()

	if *channelIDHex == "" {
		log.Fatal("usage: inspect -channel 0x...")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	onchain, err := chain.NewClient(ctx, chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		ContractAddress: cfg.Chain.ContractAddress,
		ChainID:         cfg.Chain.ChainID,
		PrivateKeyHex:   cfg.Keyring.PrivateKeyHex,
	})
	if err != nil {
		log.Fatalf("chain client init failed: %v", err)
	}

	configured := crypto.PubkeyToAddress(onchain.PrivateKey().PublicKey)
	fmt.Printf("configured sequencer address: %s\n", configured)

	idBytes := common.FromHex(*channelIDHex)
	var channelID [32]byte
	copy(channelID[:], idBytes)

	owner, balance, sequenceNumber, closed, err := onchain.GetChannel(ctx, channelID)
	if err != nil {
		log.Fatalf("GetChannel failed: %v", err)
	}
	fmt.Printf("owner:           %s\n", owner)
	fmt.Printf("balance:         %s\n", balance)
	fmt.Printf("sequenceNumber:  %s\n", sequenceNumber)
	fmt.Printf("closed:          %t\n", closed)
}
