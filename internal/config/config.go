package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=aether port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:3000"
)

type Config struct {
	HTTPPort    string `env:"PORT" envDefault:"3001"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=aether port=5432 sslmode=disable"`
	JWTSecret   string `env:"JWT_SECRET"`
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`

	// Panel admin credentials; the token carries AdminWalletAddress as its subject.
	AdminUsername      string `env:"ADMIN_USERNAME"`
	AdminPassword      string `env:"ADMIN_PASSWORD"`
	AdminWalletAddress string `env:"ADMIN_WALLET_ADDRESS" envDefault:"admin"`

	RPCURL    string `env:"KORTANA_RPC_URL" envDefault:"https://poseidon-rpc.kortana.worchsester.xyz/"`
	RPCSecret string `env:"KORTANA_RPC_SECRET"`
	// Hex seed of the HD wallet holding the payout account (wallet 0, external, index 0).
	HDSeed          string        `env:"HD_SEED"`
	PayoutDryRun    bool          `env:"PAYOUT_DRY_RUN" envDefault:"false"`
	SyncInterval    time.Duration `env:"CHAIN_SYNC_INTERVAL" envDefault:"1m"`
	YieldSchedule   string        `env:"YIELD_SCHEDULE" envDefault:"0 0 1 * *"`
	PlatformAddress string        `env:"PLATFORM_ADDRESS"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PinataJWT string `env:"PINATA_JWT"`
	PinataURL string `env:"PINATA_URL" envDefault:"https://api.pinata.cloud/pinning/pinFileToIPFS"`

	AMQPURL        string `env:"AMQP_URL"`
	AMQPExchange   string `env:"AMQP_EXCHANGE" envDefault:"aether"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Parse reads the optional .env file and the process environment into a Config.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AdminWalletAddress = strings.ToLower(strings.TrimSpace(cfg.AdminWalletAddress))
	return cfg, nil
}

// Load is Parse plus the checks the HTTP server cannot start without.
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, set your own domains for production.")
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Println("[WARN] ADMIN_USERNAME/ADMIN_PASSWORD not set, admin login is disabled.")
	}
	if cfg.HDSeed == "" {
		log.Println("[WARN] HD_SEED not set, yield payouts are disabled.")
	}

	return cfg
}

// Origins splits the comma separated CORS list.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
