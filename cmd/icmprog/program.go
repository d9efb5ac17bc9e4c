package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/scanner"
)

// programTimeout bounds a one-shot run: the exchange itself is bounded by
// the read timeout, this only guards against a wedged station.
const programTimeout = 2 * time.Minute

func newProgramCommand(opts *options) *cobra.Command {
	var model, unit string

	cmd := &cobra.Command{
		Use:   "program",
		Short: "Program one unit and exit",
		Long: `Program one unit through the same select, arm and scan steps as the
station. Missing --model or --unit values are prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cfg := opts.cfg

			zl, closer, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			if model == "" || unit == "" {
				if err := promptProgram(cat, &model, &unit); err != nil {
					return err
				}
			}
			if _, ok := cat.Lookup(model); !ok {
				return fmt.Errorf("model %s is not in catalog %s", model, cat.Source())
			}
			unit = normalizeScan(unit)
			if domain.Classify(unit).Kind != domain.ScanUnitSerial {
				return fmt.Errorf("%s is not a unit barcode", unit)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			snaps := make(chan app.Snapshot, 64)
			observer := app.ObserverFunc(func(s app.Snapshot) {
				select {
				case snaps <- s:
				default:
				}
			})

			cfg.WatchCatalog = false
			rt, err := startStation(ctx, cfg, cat, zl, app.WithObserver(observer))
			if err != nil {
				return fmt.Errorf("start station: %w", err)
			}

			notice, runErr := programOnce(ctx, rt.station, snaps, model, unit)
			if err := rt.stop(); err != nil {
				return fmt.Errorf("stop station: %w", err)
			}
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", notice.Status, notice.Message)
			if notice.Status != app.StatusPass {
				return errors.New(notice.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "catalog model key (e.g. YB180)")
	cmd.Flags().StringVar(&unit, "unit", "", "unit barcode")
	return cmd
}

// programOnce drives select, arm and scan and returns the final notice.
func programOnce(ctx context.Context, st *app.Station, snaps <-chan app.Snapshot, model, unit string) (app.Notice, error) {
	ctx, cancel := context.WithTimeout(ctx, programTimeout)
	defer cancel()

	wait := func(done func(app.Snapshot) bool) (app.Snapshot, error) {
		for {
			select {
			case <-ctx.Done():
				return app.Snapshot{}, fmt.Errorf("waiting for station: %w", ctx.Err())
			case s := <-snaps:
				if done(s) {
					return s, nil
				}
			}
		}
	}

	st.SelectModel(model)
	if _, err := wait(func(s app.Snapshot) bool { return s.State == app.StateProfileSelected }); err != nil {
		return app.Notice{}, err
	}
	st.Arm()
	if _, err := wait(func(s app.Snapshot) bool { return s.State == app.StateArmed }); err != nil {
		return app.Notice{}, err
	}
	st.Submit(unit)
	s, err := wait(func(s app.Snapshot) bool {
		switch s.Notice.Status {
		case app.StatusPass, app.StatusFail, app.StatusAlreadyProgrammed:
			return true
		}
		return false
	})
	return s.Notice, err
}

func promptProgram(cat *catalog.Catalog, model, unit *string) error {
	var fields []huh.Field
	if *model == "" {
		fields = append(fields, huh.NewSelect[string]().
			Title("Model").
			Description("Configuration to write to the module.").
			Options(huh.NewOptions(cat.Models()...)...).
			Value(model))
	}
	if *unit == "" {
		fields = append(fields, huh.NewInput().
			Title("Unit barcode").
			Description("Scan or type the module barcode.").
			Validate(func(s string) error {
				if domain.Classify(normalizeScan(s)).Kind != domain.ScanUnitSerial {
					return errors.New("not a unit barcode")
				}
				return nil
			}).
			Value(unit))
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// normalizeScan applies the same filtering as keyboard-wedge input.
func normalizeScan(s string) string {
	var b scanner.Buffer
	b.FeedString(s)
	return b.Terminate()
}
