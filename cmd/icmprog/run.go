package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/tui"
)

func newRunCommand(opts *options) *cobra.Command {
	var line bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the programming station (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cfg := opts.cfg

			zl, closer, err := newLogger(cfg, !line)
			if err != nil {
				return err
			}
			defer closer.Close()

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			if line {
				console := newConsole(os.Stdout)
				rt, err := startStation(ctx, cfg, cat, zl, app.WithObserver(console))
				if err != nil {
					return fmt.Errorf("start station: %w", err)
				}
				console.show(rt.station.Snapshot())
				runErr := console.run(ctx, os.Stdin, rt.station)
				if err := rt.stop(); err != nil {
					return fmt.Errorf("stop station: %w", err)
				}
				return runErr
			}

			obs := tui.NewChanObserver(16)
			rt, err := startStation(ctx, cfg, cat, zl, app.WithObserver(obs))
			if err != nil {
				return fmt.Errorf("start station: %w", err)
			}
			runErr := tui.Run(rt.station, obs.C(), rt.reload)
			if err := rt.stop(); err != nil {
				return fmt.Errorf("stop station: %w", err)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&line, "line", false, "line-oriented console instead of the operator screen")
	return cmd
}
