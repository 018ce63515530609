package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/ppiankov/tabrules/internal/logging"
	"github.com/ppiankov/tabrules/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile   string
	verbosity int
	logFile   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tabrules",
	Short: "Tabrules - turn browser bookmarks into tab-group rules",
	Long: `Tabrules converts a browser bookmark tree into a tab-groups rules document.

Every bookmark folder becomes one rule that matches the tabs belonging to it.
Sources can be a Netscape bookmarks export (bookmarks.html), a Chrome
bookmarks JSON dump or profile Bookmarks file, or an XBEL file.

Tabrules only produces rule documents; it never evaluates them against tabs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file := logFile
		if file == "" {
			file = viper.GetString("logging.file")
		}
		logging.SetupLogger(verbosity, logging.ResolveLogFile(file))
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of tabrules.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tabrules %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/tabrules/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbose output (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", `also append logs to this file; "default" or no value uses $XDG_STATE_HOME/tabrules/tabrules.log`)
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = logging.DefaultLogFileName

	rootCmd.AddCommand(versionCmd)
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/tabrules/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "tabrules", "config.yaml")
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := setDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	// Read in environment variables that match TABRULES_*, e.g. TABRULES_CONVERT_POLICY
	viper.SetEnvPrefix("TABRULES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbosity > 0 {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: cannot read config %s: %v\n", cfgFile, err)
	}
}

// setDefaults registers every config key so env vars and flags bind to it
func setDefaults(cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	registerDefaults("", tree)
	return nil
}

func registerDefaults(prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if sub, ok := value.(map[string]interface{}); ok {
			registerDefaults(full, sub)
			continue
		}
		viper.SetDefault(full, value)
	}
}

// loadConfig returns the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "decode configuration")
	}
	return cfg, nil
}

// bindFlags binds a command's flags to config keys. Commands bind in
// PreRunE so a key shared by two commands follows the one that runs.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return errors.Newf(errors.ErrInternal, "unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, errors.ErrConfigLoad, "bind flag %s", flag)
		}
	}
	return nil
}

// addConvertFlags registers the flags shared by convert and batch
func addConvertFlags(fs *pflag.FlagSet) {
	fs.StringP("policy", "p", "eager", "rule policy: eager (selection and edits) or lazy (hostnames only, de-duplicated)")
	fs.StringP("format", "f", "", "force the source format (netscape, xbel, chrome); detected when empty")
	fs.String("default-folder", model.DefaultFolder, "folder for bookmarks outside any folder")
	fs.StringSlice("exclude", nil, "glob of folder names to skip (repeatable)")
	fs.Bool("strict-hostnames", false, "fail when a bookmark's hostname cannot be derived")
	fs.Duration("http-timeout", model.DefaultConfig().HTTP.Timeout, "timeout for fetching remote sources")
	fs.String("ua", model.DefaultConfig().HTTP.UserAgent, "HTTP User-Agent")
	fs.Bool("insecure", false, "skip TLS certificate verification for remote sources")
	fs.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	fs.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	fs.Bool("no-cache", false, "disable cache (force fresh fetch)")
}

var convertFlagKeys = map[string]string{
	"policy":           "convert.policy",
	"format":           "convert.format",
	"default-folder":   "convert.default_folder",
	"exclude":          "convert.exclude_folders",
	"strict-hostnames": "convert.strict_hostnames",
	"http-timeout":     "http.timeout",
	"ua":               "http.user_agent",
	"insecure":         "http.insecure_tls",
	"http-proxy":       "http.http_proxy",
	"https-proxy":      "http.https_proxy",
}

// applyNoCache turns --no-cache into cache.enabled=false
func applyNoCache(cmd *cobra.Command, cfg *model.Config) {
	if off, _ := cmd.Flags().GetBool("no-cache"); off {
		cfg.Cache.Enabled = false
	}
}
