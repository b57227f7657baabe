// Package config manages relaybot configuration from environment variables,
// an optional .env file, an optional YAML file, and default values.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading or validation failure. A process that
// gets it must not start serving.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Relay      RelayConfig      `mapstructure:"relay"`
	Quarantine QuarantineConfig `mapstructure:"quarantine"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Messages   MessagesConfig   `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credential and the administrator identity.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// RelayConfig tunes routing and the inbox listing.
type RelayConfig struct {
	InboxLimit                int           `mapstructure:"inbox_limit"                 validate:"min=1,max=500"`
	InboxChunkSize            int           `mapstructure:"inbox_chunk_size"            validate:"min=100,max=4096"`
	InboxTextLimit            int           `mapstructure:"inbox_text_limit"            validate:"min=1"`
	AllowedDocumentExtensions []string      `mapstructure:"allowed_document_extensions" validate:"dive,startswith=."`
	LastMessageCacheSize      int           `mapstructure:"last_message_cache_size"     validate:"min=0"`
	StoreTimeout              time.Duration `mapstructure:"store_timeout"               validate:"min=1s"`
	SendTimeout               time.Duration `mapstructure:"send_timeout"                validate:"min=1s"`
}

// QuarantineConfig controls attachment retrieval and scanning.
type QuarantineConfig struct {
	Dir             string        `mapstructure:"dir"              validate:"required"`
	AllowDownload   bool          `mapstructure:"allow_download"`
	ScannerPath     string        `mapstructure:"scanner_path"     validate:"required"`
	ScanTimeout     time.Duration `mapstructure:"scan_timeout"     validate:"min=1s,max=1h"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" validate:"min=1s,max=1h"`
	MaxFileSize     int64         `mapstructure:"max_file_size"    validate:"gt=0"`
	Retention       time.Duration `mapstructure:"retention"        validate:"min=0"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user- and admin-facing text.
type MessagesConfig struct {
	Welcome             string `mapstructure:"welcome"               validate:"required"`
	WelcomeBack         string `mapstructure:"welcome_back"          validate:"required"`
	Delivered           string `mapstructure:"delivered"             validate:"required"`
	UnsupportedType     string `mapstructure:"unsupported_type"      validate:"required"`
	ExtensionNotAllowed string `mapstructure:"extension_not_allowed" validate:"required"`
	GeneralError        string `mapstructure:"general_error"         validate:"required"`
	NoText              string `mapstructure:"no_text"               validate:"required"`
	NoUsername          string `mapstructure:"no_username"           validate:"required"`

	AdminRawFmt          string `mapstructure:"admin_raw_fmt"           validate:"required"`
	AdminForwardFmt      string `mapstructure:"admin_forward_fmt"       validate:"required"`
	AdminPhotoCaptionFmt string `mapstructure:"admin_photo_caption_fmt" validate:"required"`
	OutgoingPhotoCaption string `mapstructure:"outgoing_photo_caption"  validate:"required"`

	NoMessages           string `mapstructure:"no_messages"             validate:"required"`
	UserNotFound         string `mapstructure:"user_not_found"          validate:"required"`
	Sent                 string `mapstructure:"sent"                    validate:"required"`
	SendError            string `mapstructure:"send_error"              validate:"required"`
	MessageNotFound      string `mapstructure:"message_not_found"       validate:"required"`
	FileTypeNotSupported string `mapstructure:"file_type_not_supported" validate:"required"`
	FileSent             string `mapstructure:"file_sent"               validate:"required"`
	FileSendError        string `mapstructure:"file_send_error"         validate:"required"`
	FileSentAuditFmt     string `mapstructure:"file_sent_audit_fmt"     validate:"required"`

	FetchNotFound    string `mapstructure:"fetch_not_found"   validate:"required"`
	NoAttachment     string `mapstructure:"no_attachment"     validate:"required"`
	DownloadDisabled string `mapstructure:"download_disabled" validate:"required"`
	DownloadError    string `mapstructure:"download_error"    validate:"required"`
	DownloadedFmt    string `mapstructure:"downloaded_fmt"    validate:"required"`
	ScanClean        string `mapstructure:"scan_clean"        validate:"required"`
	ScanInfectedFmt  string `mapstructure:"scan_infected_fmt" validate:"required"`
	ScanUnavailable  string `mapstructure:"scan_unavailable"  validate:"required"`

	BlockedFmt      string `mapstructure:"blocked_fmt"       validate:"required"`
	UnblockedFmt    string `mapstructure:"unblocked_fmt"     validate:"required"`
	NoBlocks        string `mapstructure:"no_blocks"         validate:"required"`
	AliasUpdatedFmt string `mapstructure:"alias_updated_fmt" validate:"required"`
	AliasTaken      string `mapstructure:"alias_taken"       validate:"required"`
	AliasInvalid    string `mapstructure:"alias_invalid"     validate:"required"`

	UsageReply   string `mapstructure:"usage_reply"   validate:"required"`
	UsageSend    string `mapstructure:"usage_send"    validate:"required"`
	UsageFetch   string `mapstructure:"usage_fetch"   validate:"required"`
	UsageBlock   string `mapstructure:"usage_block"   validate:"required"`
	UsageUnblock string `mapstructure:"usage_unblock" validate:"required"`
	UsageAlias   string `mapstructure:"usage_alias"   validate:"required"`
	Help         string `mapstructure:"help"          validate:"required"`
}
