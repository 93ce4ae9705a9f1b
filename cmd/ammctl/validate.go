package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/profiles"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// errRejected makes the process exit non-zero for a rejected transition.
var errRejected = errors.New("transition rejected")

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evaluate a proposed transition offline",
		RunE:  runValidate,
	}
	cmd.Flags().String("current", "", "current record (hex or CBOR file); omit for create_pool")
	cmd.Flags().String("action", "", "action (hex or CBOR file)")
	cmd.Flags().String("proposed", "", "proposed record (hex or CBOR file)")
	cmd.Flags().String("context", "", "transaction context JSON file")
	cmd.Flags().String("profile", "", "apply the stored security profile with this key")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address for --profile")
	cmd.Flags().Int("redis-db", 0, "Redis database for --profile")
	markRequired(cmd, "action", "proposed", "context")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	payloads := map[string][]byte{}
	for _, name := range []string{"current", "action", "proposed"} {
		path, _ := f.GetString(name)
		b, err := readHex(path)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		payloads[name] = b
	}

	ctxPath, _ := f.GetString("context")
	raw, err := os.ReadFile(ctxPath)
	if err != nil {
		return fmt.Errorf("--context: %w", err)
	}
	var tx ledger.TransactionContext
	if err := json.Unmarshal(raw, &tx); err != nil {
		return fmt.Errorf("--context: %w", err)
	}

	sec := cfg.Security
	if key, _ := f.GetString("profile"); key != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer func() { _ = rclient.Close() }()
		store, err := profiles.NewStore(rclient)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		defer cancel()
		if sec, err = store.Resolve(ctx, key, sec); err != nil {
			return fmt.Errorf("profile %s: %w", key, err)
		}
		logger.WithField("profile", key).Info("using stored profile")
	}

	eng := engine.NewEngine(sec, engine.WithLogger(logger))
	d := eng.EvaluatePayload(payloads["current"], payloads["action"], payloads["proposed"], tx)
	if err := writeJSON(cmd.OutOrStdout(), d); err != nil {
		return err
	}
	if !d.Accepted {
		return errRejected
	}
	return nil
}

func newMinResourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minresource",
		Short: "Compute the minimum base deposit an output must carry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			rawValue, _ := f.GetString("value")
			datumSize, _ := f.GetInt("datum-size")
			contract, _ := f.GetBool("contract")

			v := value.Value{}
			if rawValue != "" {
				if err := json.Unmarshal([]byte(rawValue), &v); err != nil {
					return fmt.Errorf("--value: %w", err)
				}
			}
			need := amm.MinResourceRequirement(v, datumSize, contract, cfg.Security.Resource)
			return writeJSON(cmd.OutOrStdout(), map[string]uint64{"min_base": need})
		},
	}
	cmd.Flags().String("value", "", `output value as JSON, e.g. {"base":2000000,"<policy>.<name>":1}`)
	cmd.Flags().Int("datum-size", 0, "inline datum size in bytes")
	cmd.Flags().Bool("contract", true, "output sits at a contract address")
	return cmd
}
