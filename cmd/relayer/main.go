package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/messenger"
	"github.com/omni/rollup-relayer/relayer"
	"github.com/omni/rollup-relayer/repository"
	"github.com/omni/rollup-relayer/signer"
)

const (
	exitFailure  = 1
	exitNotReady = 2
)

var (
	configPath   = flag.String("config", "", "path to the yaml config, optional")
	l1RPCURL     = flag.String("l1-rpc-url", "", "L1 json rpc url, overrides the config")
	l2RPCURL     = flag.String("l2-rpc-url", "", "L2 json rpc url, overrides the config")
	privateKey   = flag.String("wallet-private-key", "", "hex private key of the L1 relayer account, overrides the config")
	l2TxHash     = flag.String("l2-transaction-hash", "", "L2 transaction that emitted the message")
	l2ChainID    = flag.Uint64("l2-chain-id", 0, "L2 chain id, queried from the L2 rpc when omitted")
	wait         = flag.Bool("wait", false, "keep polling until the message becomes relayable")
	maxWait      = flag.Duration("max-wait", 0, "give up waiting after this long, 0 waits forever")
	pollInterval = flag.Duration("poll-interval", time.Minute, "interval between relay attempts with -wait")
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.New()
	logger.SetOutput(os.Stderr)

	flag.Parse()

	txHashBytes, err := hexutil.Decode(*l2TxHash)
	if err != nil || len(txHashBytes) != common.HashLength {
		logger.WithField("l2_transaction_hash", *l2TxHash).Error("l2-transaction-hash must be a 32 byte hex string")
		return exitFailure
	}
	txHash := common.BytesToHash(txHashBytes)

	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("can't load config")
		return exitFailure
	}
	logger.SetLevel(cfg.LogLevel)

	l1Client, err := ethclient.NewClient(cfg.L1.RPC.Host, cfg.L1.RPC.Timeout, cfg.L1.ChainID)
	if err != nil {
		logger.WithError(err).Error("can't dial L1 rpc client")
		return exitFailure
	}
	cfg.L1.ChainID = l1Client.ChainID()

	l2Chain, l2Client, err := dialL2(cfg)
	if err != nil {
		logger.WithError(err).Error("can't dial L2 rpc client")
		return exitFailure
	}

	if *privateKey != "" {
		cfg.Relay.PrivateKey = *privateKey
	}
	s, err := signer.NewKeySignerFromHex(cfg.Relay.PrivateKey, cfg.Relay.GasLimitMultiplier)
	if err != nil {
		logger.WithError(err).Error("can't load relayer key")
		return exitFailure
	}
	logger.WithField("relayer_address", s.Address()).Debug("loaded relayer key")

	opts := relayer.Options{
		Executor: relayer.ExecutorOptions{
			Confirmations:       cfg.Relay.Confirmations,
			ConfirmationTimeout: cfg.Relay.ConfirmationTimeout,
			PollInterval:        cfg.Relay.ReceiptPollInterval,
		},
	}
	if cfg.DBConfig != nil {
		dbConn, err2 := db.ConnectToDBAndMigrate(cfg.DBConfig)
		if err2 != nil {
			logger.WithError(err2).Error("can't connect to database and apply migrations")
			return exitFailure
		}
		defer dbConn.Close()
		opts.Journal = repository.NewRepo(dbConn).RelayAttempts
	}

	r := relayer.NewRelayer(
		logger,
		messenger.DefaultRegistry(),
		&relayer.Chain{Config: cfg.L1, Client: l1Client},
		[]*relayer.Chain{{Config: l2Chain, Client: l2Client}},
		s,
		opts,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	chainID := entity.ChainID(l2Chain.ChainID)
	var receipt *entity.RelayReceipt
	if *wait {
		receipt, err = r.RelayWhenReady(ctx, chainID, txHash, *pollInterval, *maxWait)
	} else {
		receipt, err = r.Relay(ctx, chainID, txHash)
	}
	if err != nil {
		var notReady *relayer.NotReadyError
		if errors.As(err, &notReady) {
			logger.WithError(err).Warn("message is not ready for relay")
			return exitNotReady
		}
		logger.WithError(err).Error("relay failed")
		return exitFailure
	}
	fmt.Println(receipt.TxHash.Hex())
	return 0
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.ReadConfigFromFile(*configPath)
		if err != nil {
			return nil, err
		}
		if *l1RPCURL != "" {
			cfg.L1.RPC.Host = *l1RPCURL
		}
		return cfg, nil
	}
	if *l1RPCURL == "" {
		return nil, fmt.Errorf("either -config or -l1-rpc-url is required: %w", config.ErrMissingRPCHost)
	}
	cfg = config.NewDefaultConfig(*l1RPCURL, 0)
	return cfg, nil
}

// dialL2 resolves the L2 chain from the flags and the config. A chain found in the config
// keeps its contract overrides and search settings, the flags only replace its rpc url.
func dialL2(cfg *config.Config) (*config.ChainConfig, ethclient.Client, error) {
	var chain *config.ChainConfig
	if *l2ChainID != 0 {
		chain = cfg.L2ChainByID(*l2ChainID)
	}

	rpcURL, timeout := *l2RPCURL, cfg.L1.RPC.Timeout
	if rpcURL == "" {
		if chain == nil || chain.RPC == nil {
			return nil, nil, fmt.Errorf("-l2-rpc-url is required for chain %d: %w", *l2ChainID, config.ErrMissingRPCHost)
		}
		rpcURL, timeout = chain.RPC.Host, chain.RPC.Timeout
	}

	client, err := ethclient.NewClient(rpcURL, timeout, *l2ChainID)
	if err != nil {
		return nil, nil, err
	}
	if chain == nil {
		chain = cfg.L2ChainByID(client.ChainID())
	}
	if chain == nil {
		chain = &config.ChainConfig{
			Name:    fmt.Sprintf("l2-%d", client.ChainID()),
			ChainID: client.ChainID(),
		}
	}
	chain.RPC = &config.RPCConfig{Host: rpcURL, Timeout: timeout}
	cfg.SetL2Chain(chain)
	return chain, client, nil
}
