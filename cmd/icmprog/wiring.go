package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/icmprog/internal/adapters/fs"
	logAdapter "github.com/bft-labs/icmprog/internal/adapters/log"
	"github.com/bft-labs/icmprog/internal/adapters/mqtt"
	"github.com/bft-labs/icmprog/internal/adapters/serial"
	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/cliconfig"
	"github.com/bft-labs/icmprog/internal/ports"
)

// newLogger builds the process logger. With toFile set, logs go to the
// configured log file so they do not draw over the operator screen.
func newLogger(cfg cliconfig.Config, toFile bool) (zerolog.Logger, io.Closer, error) {
	if !toFile || cfg.LogFile == "" {
		l, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
		return l, io.NopCloser(nil), err
	}
	f, err := cliconfig.OpenLogFile(cfg.LogFile)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	l, err := cliconfig.NewLogger(f, cfg.LogLevel)
	if err != nil {
		f.Close()
		return zerolog.Logger{}, nil, err
	}
	return l, f, nil
}

// loadCatalog loads the configured catalog, or the built-in one when no
// file is configured.
func loadCatalog(cfg cliconfig.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.CatalogPath)
}

func newLocator(cfg cliconfig.Config, logger ports.Logger) *serial.Locator {
	return serial.NewLocator(serial.Config{
		PortName: cfg.PortName,
		Match:    cfg.Match,
		BaudRate: cfg.BaudRate,
	}, logger)
}

func recordStores(dir string) ports.RecordStore {
	return fs.NewRecordStore(dir)
}

// stationRuntime is a started station with the collaborators it owns.
type stationRuntime struct {
	station   *app.Station
	publisher *mqtt.Publisher
	logger    ports.Logger
	cancel    context.CancelFunc
	reload    func() error
}

// startStation wires the serial session, record store, optional MQTT
// publisher and catalog watcher around a station and starts it.
func startStation(ctx context.Context, cfg cliconfig.Config, cat *catalog.Catalog, zl zerolog.Logger, opts ...app.StationOption) (*stationRuntime, error) {
	logger := logAdapter.NewZerologAdapterWithLogger(zl)
	ctx, cancel := context.WithCancel(ctx)

	rt := &stationRuntime{logger: logger, cancel: cancel}

	if cfg.MQTTBroker != "" {
		pub := mqtt.NewPublisher(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err := pub.Connect(ctx); err != nil {
			logger.Warn("result publishing disabled", ports.String("broker", cfg.MQTTBroker), ports.Err(err))
		} else {
			rt.publisher = pub
			opts = append(opts, app.WithPublisher(pub))
		}
	}

	session := app.NewSession(newLocator(cfg, logger), cfg.ReadTimeout, logger)
	st := app.NewStation(app.StationConfig{}, cat, session, recordStores, logger, opts...)
	if err := st.Start(ctx); err != nil {
		cancel()
		rt.closePublisher()
		return nil, err
	}
	rt.station = st

	if cat.Path != "" {
		path := cat.Path
		rt.reload = func() error {
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			st.ReplaceCatalog(c)
			return nil
		}

		if cfg.WatchCatalog {
			w := catalog.NewWatcher(path, logger, func(c *catalog.Catalog) { st.ReplaceCatalog(c) })
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Warn("catalog watcher stopped", ports.Err(err))
				}
			}()
		}
	}

	logger.Info("station started",
		ports.String("catalog", cat.Source()),
		ports.Int("models", cat.Len()),
		ports.Bool("check_barcode", cat.CheckBarcode),
		ports.String("output_dir", cat.OutputDirectory),
	)
	return rt, nil
}

// stop stops the station, waiting for an in-flight write, then disconnects.
func (rt *stationRuntime) stop() error {
	err := rt.station.Stop()
	rt.cancel()
	rt.closePublisher()
	return err
}

func (rt *stationRuntime) closePublisher() {
	if rt.publisher != nil {
		rt.publisher.Close()
	}
}
