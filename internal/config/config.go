package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// EnvPrefix prefixes every environment variable, e.g. AMMV_REDIS_ADDR.
const EnvPrefix = "AMMV"

type Config struct {
	Security security.Config

	API        APIConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig

	LogLevel string
}

type APIConfig struct {
	Addr    string
	APIKey  string
	DevMode bool
}

type RedisConfig struct {
	Enabled bool
	Addr    string
	DB      int
}

type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	Username string
	Password string
}

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error.
func LoadEnv(path string) bool {
	if path == "" {
		path = ".env"
	}
	return godotenv.Load(path) == nil
}

// Load merges defaults, an optional config file, AMMV_* environment variables
// and flags into a Config. Flags take precedence over the environment, which
// takes precedence over the file.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("ammv")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		API: APIConfig{
			Addr:    v.GetString("api-addr"),
			APIKey:  v.GetString("api-key"),
			DevMode: v.GetBool("dev-mode"),
		},
		Redis: RedisConfig{
			Enabled: v.GetBool("redis-enabled"),
			Addr:    v.GetString("redis-addr"),
			DB:      v.GetInt("redis-db"),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  v.GetBool("clickhouse-enabled"),
			Addr:     v.GetString("clickhouse-addr"),
			Database: v.GetString("clickhouse-database"),
			Username: v.GetString("clickhouse-username"),
			Password: v.GetString("clickhouse-password"),
		},
		LogLevel: v.GetString("log-level"),
	}

	cfg.Security = security.Config{
		DefaultMinSwapAmount:     v.GetUint64("security.default_min_swap_amount"),
		MaxSwapPercentageBps:     v.GetUint64("security.max_swap_percentage_bps"),
		MaxPriceImpactBps:        v.GetUint64("security.max_price_impact_bps"),
		MaxTxInputs:              v.GetInt("security.max_tx_inputs"),
		MaxTxOutputs:             v.GetInt("security.max_tx_outputs"),
		MaxMintPolicies:          v.GetInt("security.max_mint_policies"),
		MaxTxFee:                 v.GetUint64("security.max_tx_fee"),
		MaxValidityWindow:        v.GetInt64("security.max_validity_window_ms"),
		MaxDistinctPolicies:      v.GetInt("security.max_distinct_policies"),
		CircularAddressThreshold: v.GetInt("security.circular_address_threshold"),
		MinLPBurn:                v.GetUint64("security.min_lp_burn"),
		MinWithdrawalBps:         v.GetUint64("security.min_withdrawal_bps"),
		MaxWithdrawalBps:         v.GetUint64("security.max_withdrawal_bps"),
		Resource: amm.ResourceParams{
			BaseFloor:         v.GetUint64("security.resource.base_floor"),
			PerAssetCost:      v.GetUint64("security.resource.per_asset_cost"),
			PerByteCost:       v.GetUint64("security.resource.per_byte_cost"),
			SizeCeiling:       v.GetInt("security.resource.size_ceiling"),
			PenaltyMultiplier: v.GetUint64("security.resource.penalty_multiplier"),
		},
	}
	mins, err := minSwapAmounts(v.GetStringMapString("security.min_swap_amounts"))
	if err != nil {
		return nil, err
	}
	cfg.Security.MinSwapAmounts = mins

	return cfg, nil
}

// RegisterFlags adds the flags every binary shares. Their names match the
// configuration keys, so Load picks them up through BindPFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./ammv.{yaml,toml,json})")
	fs.String("env-file", ".env", "dotenv file loaded before the environment is read")
	fs.String("api-addr", ":8090", "HTTP listen address")
	fs.String("api-key", "", "require this X-API-Key on every request")
	fs.Bool("dev-mode", false, "include error details in API responses")
	fs.Bool("redis-enabled", true, "use Redis for profiles and the decision feed")
	fs.String("redis-addr", "localhost:6379", "Redis address")
	fs.Int("redis-db", 0, "Redis database")
	fs.Bool("clickhouse-enabled", false, "write decisions to ClickHouse")
	fs.String("clickhouse-addr", "localhost:9000", "ClickHouse native address")
	fs.String("clickhouse-database", "amm", "ClickHouse database")
	fs.String("log-level", "info", "log level")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api-addr", ":8090")
	v.SetDefault("dev-mode", false)
	v.SetDefault("redis-enabled", true)
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-db", 0)
	v.SetDefault("clickhouse-enabled", false)
	v.SetDefault("clickhouse-addr", "localhost:9000")
	v.SetDefault("clickhouse-database", "amm")
	v.SetDefault("clickhouse-username", "default")
	v.SetDefault("clickhouse-password", "")
	v.SetDefault("log-level", "info")

	// one key per field so each can be overridden from the environment
	d := security.DefaultConfig()
	v.SetDefault("security.default_min_swap_amount", d.DefaultMinSwapAmount)
	v.SetDefault("security.max_swap_percentage_bps", d.MaxSwapPercentageBps)
	v.SetDefault("security.max_price_impact_bps", d.MaxPriceImpactBps)
	v.SetDefault("security.max_tx_inputs", d.MaxTxInputs)
	v.SetDefault("security.max_tx_outputs", d.MaxTxOutputs)
	v.SetDefault("security.max_mint_policies", d.MaxMintPolicies)
	v.SetDefault("security.max_tx_fee", d.MaxTxFee)
	v.SetDefault("security.max_validity_window_ms", d.MaxValidityWindow)
	v.SetDefault("security.max_distinct_policies", d.MaxDistinctPolicies)
	v.SetDefault("security.circular_address_threshold", d.CircularAddressThreshold)
	v.SetDefault("security.min_lp_burn", d.MinLPBurn)
	v.SetDefault("security.min_withdrawal_bps", d.MinWithdrawalBps)
	v.SetDefault("security.max_withdrawal_bps", d.MaxWithdrawalBps)
	v.SetDefault("security.resource.base_floor", d.Resource.BaseFloor)
	v.SetDefault("security.resource.per_asset_cost", d.Resource.PerAssetCost)
	v.SetDefault("security.resource.per_byte_cost", d.Resource.PerByteCost)
	v.SetDefault("security.resource.size_ceiling", d.Resource.SizeCeiling)
	v.SetDefault("security.resource.penalty_multiplier", d.Resource.PenaltyMultiplier)
	v.SetDefault("security.min_swap_amounts", map[string]string{
		"base": strconv.FormatUint(d.MinSwapAmounts[value.Base], 10),
	})
}

// minSwapAmounts parses the "asset: amount" table; assets use the
// policyhex.namehex form or "base".
func minSwapAmounts(raw map[string]string) (map[value.AssetClass]uint64, error) {
	out := make(map[value.AssetClass]uint64, len(raw))
	for k, s := range raw {
		asset, err := value.ParseAssetClass(k)
		if err != nil {
			return nil, fmt.Errorf("security.min_swap_amounts: %w", err)
		}
		amt, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("security.min_swap_amounts[%s]: %w", k, err)
		}
		out[asset] = amt
	}
	return out, nil
}

// Validate checks the parts every binary depends on.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("security: %w", err))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	if c.API.Addr == "" {
		errs = append(errs, errors.New("api-addr is required"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis-addr is required when redis is enabled"))
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Addr == "" {
		errs = append(errs, errors.New("clickhouse-addr is required when clickhouse is enabled"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the text logger the binaries share.
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(lvl)
	return logger, nil
}
