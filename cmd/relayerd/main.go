package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/messenger"
	"github.com/omni/rollup-relayer/presenter"
	"github.com/omni/rollup-relayer/relayer"
	"github.com/omni/rollup-relayer/repository"
	"github.com/omni/rollup-relayer/signer"
)

const defaultMetricsHost = ":2112"

var configPath = flag.String("config", "config.yml", "path to the yaml config")

func main() {
	logger := logging.New()

	flag.Parse()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.Presenter == nil {
		logger.Fatal("presenter config is required")
	}

	l1Client, err := ethclient.NewClient(cfg.L1.RPC.Host, cfg.L1.RPC.Timeout, cfg.L1.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial L1 rpc client")
	}

	registry := messenger.DefaultRegistry()
	l2Chains := make([]*relayer.Chain, 0, len(cfg.L2Chains))
	for name, chainCfg := range cfg.L2Chains {
		chainLogger := logger.WithField("chain", name)
		if _, _, err2 := registry.Resolve(entity.ChainID(chainCfg.ChainID)); err2 != nil {
			chainLogger.WithError(err2).Fatal("unsupported L2 chain in config")
		}
		client, err2 := ethclient.NewClient(chainCfg.RPC.Host, chainCfg.RPC.Timeout, chainCfg.ChainID)
		if err2 != nil {
			chainLogger.WithError(err2).Fatal("can't dial L2 rpc client")
		}
		l2Chains = append(l2Chains, &relayer.Chain{Config: chainCfg, Client: client})
	}

	s, err := signer.NewKeySignerFromHex(cfg.Relay.PrivateKey, cfg.Relay.GasLimitMultiplier)
	if err != nil {
		logger.WithError(err).Fatal("can't load relayer key")
	}
	logger.WithField("relayer_address", s.Address()).Info("loaded relayer key")

	opts := relayer.Options{
		Executor: relayer.ExecutorOptions{
			Confirmations:       cfg.Relay.Confirmations,
			ConfirmationTimeout: cfg.Relay.ConfirmationTimeout,
			PollInterval:        cfg.Relay.ReceiptPollInterval,
		},
	}
	var attempts entity.RelayAttemptsRepo
	if cfg.DBConfig != nil {
		dbConn, err2 := db.ConnectToDBAndMigrate(cfg.DBConfig)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't connect to database and apply migrations")
		}
		defer dbConn.Close()
		attempts = repository.NewRepo(dbConn).RelayAttempts
		opts.Journal = attempts
	}

	metricsHost := cfg.MetricsHost
	if metricsHost == "" {
		metricsHost = defaultMetricsHost
	}
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(metricsHost, nil)
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	r := relayer.NewRelayer(
		logger.WithField("service", "relayer"),
		registry,
		&relayer.Chain{Config: cfg.L1, Client: l1Client},
		l2Chains,
		s,
		opts,
	)
	pr := presenter.NewPresenter(logger.WithField("service", "presenter"), r, attempts, entity.ChainID(l1Client.ChainID()))
	go func() {
		err := pr.Serve(cfg.Presenter.Host)
		if err != nil {
			logger.WithError(err).Fatal("can't serve presenter")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()
	logger.Warn("caught CTRL-C, gracefully terminating")
}
