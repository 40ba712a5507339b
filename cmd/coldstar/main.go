// Command coldstar is the interactive console for an air-gap style Solana
// wallet kept on a removable device. It keeps live chain state in sync in
// the background and walks sends through a guarded confirm-and-sign flow.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"coldstar/internal/client"
	"coldstar/internal/config"
	"coldstar/internal/device"
	"coldstar/internal/session"
	"coldstar/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "coldstar:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	log, err := newLogger(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer log.Sync()

	sol := client.NewSolanaClient(cfg.SolanaRPCURL, cfg.RPCTimeout)
	rate := client.NewCoinGeckoClient()
	tracker := device.NewTracker(device.LsblkLister{}, device.ExecMounter{}, cfg.MountCooldown, log)

	events := make(chan session.Event, 64)
	sess := session.New(cfg.TxPageSize, log)
	poller := session.NewPoller(sol, tracker, rate, events, cfg.PollInterval, cfg.TxPageSize, config.Cluster(), log)
	flow := session.NewSendFlow(
		func() (string, uint64, bool) {
			return sess.PublicKey, sess.BalanceLamports, sess.PublicKey != "" && sess.HasBalance
		},
		tracker.ContainerPath,
		sol,
		events,
		func() { poller.RefreshAfter(session.ResyncDelay) },
		cfg.FeeLamports,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	app := tui.NewApp(ctx, sess, flow, poller, tracker, events, cfg.SolanaRPCURL, log)
	program := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("starting",
		zap.String("rpc", cfg.SolanaRPCURL),
		zap.String("cluster", config.Cluster()))

	_, runErr := program.Run()

	cancel()
	if err := tracker.Unmount(); err != nil {
		log.Warn("unmount on exit failed", zap.Error(err))
	}
	return runErr
}

// newLogger writes structured logs to a file. The terminal belongs to the
// UI, so without a configured path logging is disabled entirely.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
