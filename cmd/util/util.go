package util

import (
	"strings"

	"github.com/ValentinKolb/aKV/lib/common"
	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/ValentinKolb/aKV/lib/store"
	"github.com/ValentinKolb/aKV/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// Logger is the logger of the command-line interface
var Logger = logger.GetLogger("cli")

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags of a local store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "log-file"
	cmd.PersistentFlags().String(key, "akv.log", WrapString("Path of the append-only log file holding the values"))

	key = "meta-file"
	cmd.PersistentFlags().String(key, "akv.meta", WrapString("Path of the metadata file holding the index snapshot"))

	key = "buffer-capacity"
	cmd.PersistentFlags().Int(key, 64, WrapString("Size of the write buffer (in KB). A full buffer is written to the log in the background"))

	key = "workers"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of background flush workers (0 = one per CPU)"))

	key = "max-pending-chunks"
	cmd.PersistentFlags().Int(key, 0, WrapString("How many full buffers may wait for a worker before writes block (0 = default)"))

	key = "snapshot-interval"
	cmd.PersistentFlags().Duration(key, 0, WrapString("Interval of periodic index snapshots, e.g. 30s (0 = only on flush and exit)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from .env files and environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("akv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() *common.StoreConfig {
	return &common.StoreConfig{
		LogPath:          viper.GetString("log-file"),
		MetaPath:         viper.GetString("meta-file"),
		BufferCapacity:   viper.GetInt("buffer-capacity") * 1024,
		Workers:          viper.GetInt("workers"),
		MaxPendingChunks: viper.GetInt("max-pending-chunks"),
		SnapshotInterval: viper.GetDuration("snapshot-interval"),
		LogLevel:         viper.GetString("log-level"),
	}
}

// OpenStore validates the configuration, initializes the loggers and opens a
// local store with string values
func OpenStore(conf *common.StoreConfig) (store.IStore[string], error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, err
	}
	Logger.Debugf("opening store with configuration:%s", conf)
	return lstore.OpenWithOptions(conf.LogPath, conf.MetaPath, codec.String, conf.Options())
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
