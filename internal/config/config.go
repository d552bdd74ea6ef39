package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/spf13/viper"
)

var (
	vCfg   = newViper()
	cfgDir string
)

const (
	OptimizeKey       = "optimize"
	MergeStrategyKey  = "merge_strategy"
	LockRetryDelayKey = "lock_retry_delay"
	LockTimeoutKey    = "lock_timeout"
	SinkLockKey       = "sink_lock"
	ShowDiffsKey      = "show_diffs"
)

// Keys lists every setting that can be changed with Set.
var Keys = []string{OptimizeKey, MergeStrategyKey, LockRetryDelayKey, LockTimeoutKey, SinkLockKey, ShowDiffsKey}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SCAFFOLD")
	v.AutomaticEnv()

	v.SetDefault(OptimizeKey, true)
	v.SetDefault(MergeStrategyKey, tree.MergeDefault.String())
	v.SetDefault(LockRetryDelayKey, 100*time.Millisecond)
	v.SetDefault(LockTimeoutKey, 30*time.Second)
	v.SetDefault(SinkLockKey, true)
	v.SetDefault(ShowDiffsKey, true)
	return v
}

// Load reads ~/.scaffold/config.yaml if it exists. Environment variables prefixed with
// SCAFFOLD_ take precedence over the file.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return loadFrom(filepath.Join(home, ".scaffold"))
}

func loadFrom(dir string) error {
	cfgDir = dir
	vCfg = newViper()
	vCfg.AddConfigPath(cfgDir)

	if err := vCfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

func GetOptimize() bool {
	return vCfg.GetBool(OptimizeKey)
}

func GetMergeStrategy() (tree.MergeStrategy, error) {
	return tree.ParseMergeStrategy(vCfg.GetString(MergeStrategyKey))
}

func GetLockRetryDelay() time.Duration {
	return vCfg.GetDuration(LockRetryDelayKey)
}

func GetLockTimeout() time.Duration {
	return vCfg.GetDuration(LockTimeoutKey)
}

// GetSinkLock reports whether writes to a directory hold its lock file.
func GetSinkLock() bool {
	return vCfg.GetBool(SinkLockKey)
}

func GetShowDiffs() bool {
	return vCfg.GetBool(ShowDiffsKey)
}

// Get returns the effective value of key as a string.
func Get(key string) string {
	return vCfg.GetString(key)
}

// Set validates value and persists it to the config file.
func Set(key, value string) error {
	key = strings.ToLower(key)
	if !lo.Contains(Keys, key) {
		return errors.Errorf("unknown config key %q, expected one of %s", key, strings.Join(Keys, ", "))
	}

	switch key {
	case MergeStrategyKey:
		if _, err := tree.ParseMergeStrategy(value); err != nil {
			return err
		}
	case LockRetryDelayKey, LockTimeoutKey:
		if _, err := time.ParseDuration(value); err != nil {
			return errors.Wrapf(err, "invalid duration for %s", key)
		}
	case OptimizeKey, SinkLockKey, ShowDiffsKey:
		if !lo.Contains([]string{"true", "false"}, strings.ToLower(value)) {
			return errors.Errorf("%s must be true or false", key)
		}
		value = strings.ToLower(value)
	}

	vCfg.Set(key, value)
	return save()
}

func save() error {
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return err
	}

	if err := vCfg.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}

		if err := vCfg.SafeWriteConfig(); err != nil {
			return err
		}
	}

	return nil
}
