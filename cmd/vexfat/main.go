package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aligator/vexfat"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var defaultLogFormatter = &log.TextFormatter{}

// infoFormatter overrides the default format for Info() log events to
// provide an easier to read output
type infoFormatter struct {
}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

// setupLogging once the flags have been parsed, setup the logging
func setupLogging(quiet bool, verbose int, verboseSet bool) error {
	log.SetFormatter(new(infoFormatter))
	log.SetLevel(log.InfoLevel)
	if quiet && verboseSet && verbose > 0 {
		return errors.New("can't set quiet and verbose flag at the same time")
	}
	switch {
	case quiet, verbose == 0:
		log.SetLevel(log.ErrorLevel)
	case verbose == 1:
		if verboseSet {
			log.SetFormatter(defaultLogFormatter)
		}
		log.SetLevel(log.InfoLevel)
	case verbose == 2:
		log.SetFormatter(defaultLogFormatter)
		log.SetLevel(log.DebugLevel)
	case verbose == 3:
		log.SetFormatter(defaultLogFormatter)
		log.SetLevel(log.TraceLevel)
	default:
		return errors.New("verbose flag can only be set to 0, 1, 2 or 3")
	}
	return nil
}

// volumeFlags are shared by every command which assembles a volume.
type volumeFlags struct {
	config   string
	serial   string
	uniqueID string
}

func (f *volumeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.config, "config", "c", "", "Volume configuration (yaml). Defaults apply if not set.")
	cmd.PersistentFlags().StringVar(&f.serial, "serial", "", "Volume serial number in hex, overrides the configuration")
	cmd.PersistentFlags().StringVar(&f.uniqueID, "unique-id", "", "Device unique ID in hex which is folded into the serial number")
}

// load reads the configuration through fs, applies the flags and assembles
// the volume.
func (f *volumeFlags) load(fs afero.Fs) (*vexfat.Volume, vexfat.Config, error) {
	cfg := vexfat.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = vexfat.LoadConfig(fs, f.config); err != nil {
			return nil, cfg, err
		}
	}

	if f.serial != "" {
		serial, err := strconv.ParseUint(f.serial, 16, 32)
		if err != nil {
			return nil, cfg, fmt.Errorf("invalid serial %q: %v", f.serial, err)
		}
		cfg.Serial = uint32(serial)
		cfg.UniqueID = ""
	}
	if f.uniqueID != "" {
		if _, err := hex.DecodeString(f.uniqueID); err != nil {
			return nil, cfg, fmt.Errorf("invalid unique ID %q: %v", f.uniqueID, err)
		}
		cfg.UniqueID = f.uniqueID
	}

	opts, err := cfg.Options(fs)
	if err != nil {
		return nil, cfg, err
	}
	vol, err := vexfat.NewVolume(opts)
	return vol, cfg, err
}

func modTime(cfg vexfat.Config) time.Time {
	t, err := time.Parse(time.RFC3339, cfg.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newCmd() *cobra.Command {
	var (
		flagQuiet       bool
		flagVerbose     int
		flagVerboseName = "verbose"
		volume          volumeFlags
	)
	cmd := &cobra.Command{
		Use:               "vexfat",
		Short:             "synthesize read-only exFAT volumes",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(flagQuiet, flagVerbose, cmd.Flag(flagVerboseName).Changed)
		},
	}

	cmd.AddCommand(infoCmd(&volume))
	cmd.AddCommand(dumpCmd(&volume))
	cmd.AddCommand(serveCmd(&volume))
	cmd.AddCommand(verifyCmd(&volume))

	volume.register(cmd)
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet execution")
	cmd.PersistentFlags().IntVarP(&flagVerbose, flagVerboseName, "v", 1, "Verbosity of logging: 0 = quiet, 1 = info, 2 = debug, 3 = trace. Default is info. Setting it explicitly will create structured logging lines.")

	return cmd
}

func main() {
	if err := newCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
