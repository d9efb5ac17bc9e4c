package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	logAdapter "github.com/bft-labs/icmprog/internal/adapters/log"
	"github.com/bft-labs/icmprog/internal/adapters/serial"
	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/device"
	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#414868"))).
		Headers(headers...)
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog]",
		Short: "Load a catalog and print its models",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cfg := opts.cfg
			if len(args) == 1 {
				cfg.CatalogPath = args[0]
			}

			cat, err := loadCatalog(cfg)
			if err != nil {
				var lerr *catalog.LoadError
				if errors.As(err, &lerr) {
					return fmt.Errorf("%s (%w)", lerr.Message, err)
				}
				return err
			}

			t := newTable("Model", "Probe", "Set point", "Hard start", "Min output", "Frame")
			for _, key := range cat.Models() {
				p, _ := cat.Lookup(key)
				frame, err := domain.Encode(p)
				if err != nil {
					return err
				}
				t.Row(p.Model, p.Probe.String(), p.SetPointDisplay(), p.HardStartDisplay(), p.MinimumOutputDisplay(), frame.String())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog:        %s\n", cat.Source())
			fmt.Fprintf(out, "Output folder:  %s\n", cat.OutputDirectory)
			fmt.Fprintf(out, "Check barcode:  %t\n", cat.CheckBarcode)
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}

func newEncodeCommand(opts *options) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the configuration frame for a catalog model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cat, err := loadCatalog(opts.cfg)
			if err != nil {
				return err
			}
			p, ok := cat.Lookup(model)
			if !ok {
				return fmt.Errorf("model %s is not in catalog %s", model, cat.Source())
			}
			frame, err := domain.Encode(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), frame.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "catalog model key (e.g. YB180)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newPortsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and mark the ones matching the programmer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			zl, closer, err := newLogger(opts.cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			infos, err := newLocator(opts.cfg, logAdapter.NewZerologAdapterWithLogger(zl)).Ports()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found.")
				return nil
			}

			t := newTable("Port", "Product", "VID:PID", "Serial", "USB", "Match")
			for _, info := range infos {
				match := ""
				if info.Matches {
					match = "*"
				}
				t.Row(info.Name, info.Product, info.VIDPID, info.SerialNumber, strconv.FormatBool(info.IsUSB), match)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
}

func newProbeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Ask the programmer for its identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			zl, closer, err := newLogger(opts.cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			logger := logAdapter.NewZerologAdapterWithLogger(zl)
			session := app.NewSession(newLocator(opts.cfg, logger), opts.cfg.ReadTimeout, logger)
			id, err := session.Query(cmd.Context())
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newEmulateCommand(opts *options) *cobra.Command {
	var failEvery int

	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "Answer as the programmer firmware on a serial port",
		Long: `Run the programmer emulator on a serial port, usually one end of a
null-modem pair, so the station can be exercised without hardware.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cfg := opts.cfg
			if cfg.PortName == "" {
				return errors.New("emulate needs --port")
			}

			zl, closer, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()
			logger := logAdapter.NewZerologAdapterWithLogger(zl)

			port, err := serial.OpenRaw(cfg.PortName, cfg.BaudRate)
			if err != nil {
				return err
			}

			emu := device.NewEmulator()
			if failEvery > 0 {
				n := 0
				emu.SetWrite(func(f domain.Frame) bool {
					n++
					ok := n%failEvery != 0
					logger.Info("emulated write", ports.String("frame", f.String()), ports.Bool("ok", ok))
					return ok
				})
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				port.Close()
			}()

			logger.Info("emulating programmer", ports.String("port", cfg.PortName), ports.Int("baud", cfg.BaudRate))
			err = emu.Serve(ctx, port)
			logger.Info("emulator stopped", ports.Int("accepted", emu.Accepted()))
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVar(&failEvery, "fail-every", 0, "answer FAIL on every Nth write (0 never fails)")
	return cmd
}
