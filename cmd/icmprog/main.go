package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/icmprog/internal/cliconfig"
)

const longHelp = `Program ICM325A igniter control modules on the production line.

Scan a product model barcode to select a configuration, press Program,
then scan the module barcode. The configuration frame is written to the
module over the programmer's serial link and an audit record is kept per
unit so a module is not programmed twice.

Configuration is read from $HOME/.icmprog/config.toml, then ICMPROG_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  icmprog --catalog models.json
  icmprog run --line --port /dev/ttyACM0
  icmprog program --model YB180 --unit 123456S123456789010D1234
  icmprog ports
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// options carries the resolved configuration to every subcommand.
type options struct {
	cfg     cliconfig.Config
	cfgPath string
}

// load layers the config file and environment under the flags the operator
// set explicitly, then validates the result.
func (o *options) load(cmd *cobra.Command) error {
	cfgFile := o.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&o.cfg, fc, cfgFile, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&o.cfg, changed); err != nil {
		return err
	}

	return o.cfg.Validate()
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(&options{cfg: cliconfig.DefaultConfig()})
}

func buildRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "icmprog",
		Short:         "Program ICM325A igniter control modules from barcode scans",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cfg := &opts.cfg
	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgPath, "config", "", "path to config file (default: $HOME/.icmprog/config.toml)")
	pf.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "profile catalog file (.json, .yaml or .toml); built-in catalog when empty")
	pf.BoolVar(&cfg.WatchCatalog, "watch-catalog", cfg.WatchCatalog, "reload the catalog when the file changes")
	pf.StringVar(&cfg.PortName, "port", cfg.PortName, "serial port of the programmer; skips discovery")
	pf.StringVar(&cfg.Match, "match", cfg.Match, "substring identifying the programmer among USB serial ports")
	pf.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "serial baud rate")
	pf.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "time to wait for the programmer reply")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file used while the operator screen is open")
	pf.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker URL for result publishing (e.g. tcp://broker:1883)")
	pf.StringVar(&cfg.MQTTTopic, "mqtt-topic", cfg.MQTTTopic, "MQTT topic prefix")
	pf.StringVar(&cfg.MQTTClientID, "mqtt-client-id", cfg.MQTTClientID, "MQTT client id")
	pf.StringVar(&cfg.MQTTUsername, "mqtt-username", cfg.MQTTUsername, "MQTT username")
	pf.StringVar(&cfg.MQTTPassword, "mqtt-password", cfg.MQTTPassword, "MQTT password")

	run := newRunCommand(opts)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(
		run,
		newProgramCommand(opts),
		newValidateCommand(opts),
		newEncodeCommand(opts),
		newPortsCommand(opts),
		newProbeCommand(opts),
		newEmulateCommand(opts),
	)
	return root
}

func main() {
	log := cliconfig.Logger()
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("icmprog")
		os.Exit(1)
	}
}
