package conf

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/shareporter/shareporter/pkg/utils"
)

// Config is process-level configuration, read once from the environment at
// startup. Everything the admin can change at runtime lives in the settings
// table instead (see settings.go).
type Config struct {
	Address  string `env:"SP_ADDRESS" envDefault:"0.0.0.0"`
	Port     int    `env:"SP_PORT" envDefault:"5277"`
	DBFile   string `env:"SP_DB_FILE" envDefault:"data/shareporter.db"`
	LogFile  string `env:"SP_LOG_FILE" envDefault:""`
	LogLevel string `env:"SP_LOG_LEVEL" envDefault:"info"`

	// RemoteTimeout bounds every single drive / index request.
	RemoteTimeout time.Duration `env:"SP_REMOTE_TIMEOUT" envDefault:"10s"`

	// The settle delays paper over the provider's eventual-consistency
	// window: listings right after a transfer or delete may not see the
	// change yet.
	PostTransferSettleDelay time.Duration `env:"SP_POST_TRANSFER_SETTLE" envDefault:"3s"`
	PostDeleteSettleDelay   time.Duration `env:"SP_POST_DELETE_SETTLE" envDefault:"2s"`
	PreScanSettleDelay      time.Duration `env:"SP_PRE_SCAN_SETTLE" envDefault:"3s"`
}

var Conf *Config

func InitConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config from env: %w", err)
	}
	Conf = cfg
	utils.Log.Debugf("config loaded: %+v", cfg)
	return nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
