// Command subscriber prints the live decision feed published by the API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/aman-zulfiqar/amm-validator/internal/audit"
	"github.com/aman-zulfiqar/amm-validator/internal/config"
	"github.com/aman-zulfiqar/amm-validator/internal/constants"
)

func main() {
	fs := pflag.NewFlagSet("subscriber", pflag.ExitOnError)
	config.RegisterFlags(fs)
	rejectedOnly := fs.Bool("rejected-only", false, "only print rejected transitions")
	action := fs.String("action", "", "only print one action type, e.g. swap")
	_ = fs.Parse(os.Args[1:])

	envFile, _ := fs.GetString("env-file")
	config.LoadEnv(envFile)
	cfgFile, _ := fs.GetString("config")
	cfg, err := config.Load(cfgFile, fs)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	rclient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	feed := audit.NewPubSub(rclient, logger)
	defer func() { _ = feed.Close() }()

	show := func(ev *audit.DecisionEvent) {
		entry := logger.WithFields(logrus.Fields{
			"action":  ev.Action,
			"pool":    ev.PoolID,
			"fee":     ev.TxFee,
			"inputs":  ev.Inputs,
			"outputs": ev.Outputs,
		})
		if ev.Accepted {
			entry.Info("accepted")
			return
		}
		entry.WithField("code", ev.Code).Warn(ev.Message)
	}

	run := func(name string, f func() error) {
		go func() {
			if err := f(); err != nil && ctx.Err() == nil {
				logger.WithError(err).WithField("feed", name).Error("subscription ended")
				cancel()
			}
		}()
	}

	switch {
	case *action != "":
		channel := fmt.Sprintf(constants.PubSubChannelActionTemplate, *action)
		run(channel, func() error { return feed.Subscribe(ctx, channel, show) })
	case *rejectedOnly:
		run(constants.PubSubChannelRejections, func() error {
			return feed.Subscribe(ctx, constants.PubSubChannelRejections, show)
		})
	default:
		run(constants.PubSubChannelDecisions, func() error {
			return feed.Subscribe(ctx, constants.PubSubChannelDecisions, show)
		})
		// per-action counters from the pattern feed
		counts := map[string]int{}
		events := make(chan string, 64)
		run(constants.PubSubPatternActions, func() error {
			return feed.PSubscribe(ctx, constants.PubSubPatternActions, func(ev *audit.DecisionEvent) {
				select {
				case events <- ev.Action:
				default:
				}
			})
		})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case a := <-events:
					counts[a]++
					logger.WithField("action", a).WithField("seen", counts[a]).Debug("action feed")
				}
			}
		}()
	}

	logger.WithField("redis", cfg.Redis.Addr).Info("subscriber running, press Ctrl+C to stop")

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	logger.Info("shutting down subscriber")
}
