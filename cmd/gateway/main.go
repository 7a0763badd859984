package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/config"
	"github.com/fylaro/fylaro-backend/pkg/gateway"
	"github.com/fylaro/fylaro-backend/pkg/gateway/auth"
	"github.com/fylaro/fylaro-backend/pkg/logging"
	"github.com/fylaro/fylaro-backend/pkg/readmodel"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func main() {
	configPath := flag.String("config", getEnvDefault("FYLARO_CONFIG", ""), "Path to YAML config file")
	flag.Parse()

	logger, err := logging.NewColoredLogger(logging.ComponentGeneral, true)
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.ComponentError(logging.ComponentGeneral, "failed to load configuration", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "configuration loaded",
		zap.String("listen_addr", cfg.Gateway.ListenAddr),
		zap.Int64("chain_id", cfg.Chain.ChainID),
		zap.String("address_book", cfg.Chain.AddressBookPath),
	)

	store, err := readmodel.Open(cfg.ReadModel.Path, logger)
	if err != nil {
		logger.ComponentError(logging.ComponentGeneral, "failed to open read model", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	ks := keystore.NewKeyStore(cfg.Keystore.Dir, keystore.StandardScryptN, keystore.StandardScryptP)
	authSvc, err := auth.NewService(logger, store, ks, cfg.Keystore.Passphrase)
	if err != nil {
		logger.ComponentError(logging.ComponentGeneral, "failed to initialize auth service", zap.Error(err))
		os.Exit(1)
	}
	if err := authSvc.Bootstrap(context.Background(), cfg.APIKeys); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "failed to bootstrap API keys", zap.Error(err))
		os.Exit(1)
	}

	hub := gateway.NewEventHub(logger)

	chainClient := chain.New(chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		AddressBookPath: cfg.Chain.AddressBookPath,
		ChainID:         cfg.Chain.ChainID,
		ReadTimeout:     cfg.Chain.ReadTimeout,
		SubmitTimeout:   cfg.Chain.SubmitTimeout,
	}, logger, chain.NewMultiSink(store, hub))
	defer chainClient.Close()

	g := gateway.New(logger, &gateway.Config{
		ListenAddr:         cfg.Gateway.ListenAddr,
		RateLimitPerMinute: cfg.Gateway.RateLimitPerMinute,
		RateLimitBurst:     cfg.Gateway.RateLimitBurst,
		EnableHTTPS:        cfg.Gateway.HTTPS.Enabled,
		DomainName:         cfg.Gateway.HTTPS.Domain,
		TLSCacheDir:        cfg.Gateway.HTTPS.CacheDir,
		ACMEEmail:          cfg.Gateway.HTTPS.Email,
	}, chainClient, authSvc, store, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := g.Start(ctx); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "gateway server error", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "gateway shutdown complete")
}
