package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every configuration key in the environment,
// e.g. RELAY_RELAY_INBOX_LIMIT or RELAY_QUARANTINE_SCAN_TIMEOUT.
const EnvPrefix = "RELAY"

// legacyEnv maps configuration keys to the short environment names
// deployments have always used. They take precedence over RELAY_* names.
var legacyEnv = map[string][]string{
	"telegram.token":            {"BOT_TOKEN", "RELAY_TELEGRAM_TOKEN"},
	"telegram.admin_id":         {"ADMIN_ID", "RELAY_TELEGRAM_ADMIN_ID"},
	"database.path":             {"DB_PATH", "RELAY_DATABASE_PATH"},
	"quarantine.dir":            {"QUARANTINE_DIR", "RELAY_QUARANTINE_DIR"},
	"quarantine.allow_download": {"ALLOW_DOWNLOAD", "RELAY_QUARANTINE_ALLOW_DOWNLOAD"},
}

// LoadConfig builds the configuration from defaults, an optional YAML file at
// path, a .env file in the working directory, and the environment, then
// validates it. An empty path skips the file. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	v := viper.New()
	cfg := Defaults()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("%w: failed to bind %s: %v", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
			slog.Debug("Config file not found, using defaults and environment", "path", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers every overridable key with viper so AutomaticEnv can
// resolve it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.json", d.Logger.JSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("relay.inbox_limit", d.Relay.InboxLimit)
	v.SetDefault("relay.inbox_chunk_size", d.Relay.InboxChunkSize)
	v.SetDefault("relay.inbox_text_limit", d.Relay.InboxTextLimit)
	v.SetDefault("relay.allowed_document_extensions", d.Relay.AllowedDocumentExtensions)
	v.SetDefault("relay.last_message_cache_size", d.Relay.LastMessageCacheSize)
	v.SetDefault("relay.store_timeout", d.Relay.StoreTimeout)
	v.SetDefault("relay.send_timeout", d.Relay.SendTimeout)

	v.SetDefault("quarantine.dir", d.Quarantine.Dir)
	v.SetDefault("quarantine.allow_download", d.Quarantine.AllowDownload)
	v.SetDefault("quarantine.scanner_path", d.Quarantine.ScannerPath)
	v.SetDefault("quarantine.scan_timeout", d.Quarantine.ScanTimeout)
	v.SetDefault("quarantine.download_timeout", d.Quarantine.DownloadTimeout)
	v.SetDefault("quarantine.max_file_size", d.Quarantine.MaxFileSize)
	v.SetDefault("quarantine.retention", d.Quarantine.Retention)

	for name, task := range d.Scheduler.Tasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
