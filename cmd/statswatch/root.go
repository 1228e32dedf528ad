package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/logging"
	"github.com/noah-isme/sheetchart-api/pkg/statsclient"
)

type watchOptions struct {
	apiURL   string
	wsURL    string
	token    string
	interval time.Duration
	timeout  time.Duration
}

func newRootCommand() *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:          "statswatch",
		Short:        "Follow the admin dashboard counters over push with polling fallback",
		Long:         "Follow the admin dashboard counters over push with polling fallback.\nSend SIGHUP to force an immediate refresh.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api", "", "API base URL (default from SHEETCHART_CLIENT_API_URL)")
	flags.StringVar(&opts.wsURL, "ws", "", "realtime websocket URL (default from SHEETCHART_CLIENT_WS_URL)")
	flags.StringVar(&opts.token, "token", "", "admin bearer token (default from SHEETCHART_CLIENT_TOKEN)")
	flags.DurationVar(&opts.interval, "interval", 0, "polling interval while disconnected (default from SHEETCHART_CLIENT_POLL_INTERVAL)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "pull request timeout")

	return cmd
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	clientCfg, logCfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	applyOverrides(&clientCfg, opts)

	logger := logging.NewWithOutput(logCfg, cmd.OutOrStdout())
	if clientCfg.Token == "" {
		return fmt.Errorf("an admin token is required (--token or SHEETCHART_CLIENT_TOKEN)")
	}

	identity, err := statsclient.IdentityFromToken(clientCfg.Token)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresh := statsclient.NewRefreshSignal()
	hangups := make(chan os.Signal, 1)
	signal.Notify(hangups, syscall.SIGHUP)
	defer signal.Stop(hangups)
	go relayRefresh(ctx, hangups, refresh, logger)

	var last *dto.StatsSnapshot
	reconciler := statsclient.NewReconciler(statsclient.Config{
		Fetcher:  statsclient.NewHTTPFetcher(clientCfg.APIURL, clientCfg.Token, opts.timeout),
		Channel:  statsclient.NewWebsocketChannel(clientCfg.WSURL, clientCfg.Token, identity, nil, logger),
		Signal:   refresh,
		Interval: clientCfg.PollInterval,
		Logger:   logger,
		OnSnapshot: func(snapshot dto.StatsSnapshot, source string) {
			if last != nil && *last == snapshot {
				return
			}
			last = &snapshot
			logger.Info().
				Str("source", source).
				Int64("users", snapshot.Users).
				Int64("files", snapshot.Files).
				Int64("charts", snapshot.Charts).
				Int64("logs", snapshot.Logs).
				Int64("todays_uploads", snapshot.TodaysUploads).
				Int64("todays_logs", snapshot.TodaysLogs).
				Msg("stats snapshot")
		},
	})

	logger.Info().
		Str("api", clientCfg.APIURL).
		Str("ws", clientCfg.WSURL).
		Dur("interval", clientCfg.PollInterval).
		Msg("watching admin stats")

	reconciler.Run(ctx)
	logger.Info().Msg("statswatch stopped")
	return nil
}

// relayRefresh raises the refresh flag for every hangup until ctx ends.
func relayRefresh(ctx context.Context, hangups <-chan os.Signal, refresh *statsclient.RefreshSignal, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-hangups:
			logger.Info().Str("signal", sig.String()).Msg("refresh requested")
			refresh.Mark()
		}
	}
}

func applyOverrides(cfg *config.ClientConfig, opts watchOptions) {
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.wsURL != "" {
		cfg.WSURL = opts.wsURL
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	if opts.interval > 0 {
		cfg.PollInterval = opts.interval
	}
}
