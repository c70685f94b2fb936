package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/sweeper/internal/logging"
	"github.com/vultisig/sweeper/internal/metrics"
)

type config struct {
	Wallet   walletConfig
	Solana   solanaConfig
	Holdings holdingsConfig
	Sweep    sweepConfig
	Metrics  metrics.Config
	Log      logging.Config
}

type walletConfig struct {
	KeypairPath string `required:"true"`
	// ConfirmEach asks on the terminal before every signature.
	ConfirmEach bool `default:"true"`
}

type solanaConfig struct {
	RpcURL         string        `default:"https://api.mainnet-beta.solana.com"`
	PollInterval   time.Duration `default:"2s"`
	ConfirmTimeout time.Duration `default:"90s"`
}

type holdingsConfig struct {
	URL string `default:"https://lite-api.jup.ag/ultra/v1/holdings"`
}

type sweepConfig struct {
	Recipient string `required:"true"`
	// NativeReserve is kept back from the SOL balance, in lamports.
	NativeReserve uint64        `default:"1000000"`
	Cooldown      time.Duration `default:"1s"`
	Memo          string        `default:"vultisig-sweeper:v1"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
