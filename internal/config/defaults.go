package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBPath = "bot.db"

	DefaultInboxLimit           = 30
	DefaultInboxChunkSize       = 3800 // stays under Telegram's 4096 message limit
	DefaultInboxTextLimit       = 300
	DefaultLastMessageCacheSize = 1024
	DefaultStoreTimeout         = 5 * time.Second
	DefaultSendTimeout          = 15 * time.Second

	DefaultQuarantineDir   = "/tmp/bot_quarantine"
	DefaultScannerPath     = "clamscan"
	DefaultScanTimeout     = 2 * time.Minute
	DefaultDownloadTimeout = time.Minute
	DefaultMaxFileSize     = 20 << 20 // Bot API download limit

	TaskSQLMaintenance    = "sql_maintenance"
	TaskQuarantineCleanup = "quarantine_cleanup"
)

// DefaultDocumentExtensions is the document extension allow-list.
var DefaultDocumentExtensions = []string{
	".pdf", ".txt", ".md", ".jpg", ".jpeg", ".png", ".mp4", ".mp3", ".ogg", ".sql",
}

// DefaultMessages holds the default user- and admin-facing texts.
var DefaultMessages = MessagesConfig{
	Welcome:             "Hi. You can use this bot to send a message to the administrator.",
	WelcomeBack:         "You have launched the bot again.",
	Delivered:           "The message has been delivered to the administrator. Please wait for a response.",
	UnsupportedType:     "This file type is not supported.",
	ExtensionNotAllowed: "File extension is not allowed.",
	GeneralError:        "An error occurred. Please try again later.",
	NoText:              "<no text>",
	NoUsername:          "<without username>",

	AdminRawFmt:          "New message from %d | %s: %s",
	AdminForwardFmt:      "New message from %s (anonymously):\n",
	AdminPhotoCaptionFmt: "From %s",
	OutgoingPhotoCaption: "From the administrator",

	NoMessages:           "No messages.",
	UserNotFound:         "User not found.",
	Sent:                 "Sent.",
	SendError:            "Error sending.",
	MessageNotFound:      "Message/file not found.",
	FileTypeNotSupported: "File type not supported.",
	FileSent:             "The file has been sent.",
	FileSendError:        "Error sending file.",
	FileSentAuditFmt:     "file sent (msg %d)",

	FetchNotFound:    "Message not found.",
	NoAttachment:     "This message has no file.",
	DownloadDisabled: "Download is disabled on the server (ALLOW_DOWNLOAD=0).",
	DownloadError:    "Error downloading file.",
	DownloadedFmt:    "File downloaded to quarantine: %s (detected type: %s)",
	ScanClean:        "ClamAV: clean.",
	ScanInfectedFmt:  "ClamAV: possible infection!\n%s",
	ScanUnavailable:  "ClamAV not found or not available on the server, check skipped.",

	BlockedFmt:      "%s blocked. Cause: %s",
	UnblockedFmt:    "%s unblocked.",
	NoBlocks:        "No blocked users.",
	AliasUpdatedFmt: "%s is now %s.",
	AliasTaken:      "Alias is already in use.",
	AliasInvalid:    "Invalid alias. Use 1-32 letters, digits or _ . # - characters; User#N is reserved.",

	UsageReply:   "Usage: /reply User#N reply text",
	UsageSend:    "Usage: /send User#N MESSAGE_ID",
	UsageFetch:   "Usage: /fetch MESSAGE_ID",
	UsageBlock:   "Usage: /block User#N [reason]",
	UsageUnblock: "Usage: /unblock User#N",
	UsageAlias:   "Usage: /alias User#N new_alias",
	Help: "/inbox - last messages\n" +
		"/reply User#N text - answer a user\n" +
		"/send User#N MESSAGE_ID - re-send a stored file to its owner\n" +
		"/fetch MESSAGE_ID - download a file to quarantine and scan it\n" +
		"/block User#N [reason] - stop relaying a user\n" +
		"/unblock User#N - resume relaying a user\n" +
		"/blocked - list blocked users\n" +
		"/alias User#N new_alias - rename a user",
}

// Defaults returns a configuration populated with every default value.
// Token and admin id have no default and must be supplied.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{Level: DefaultLogLevel},
		Database: DatabaseConfig{
			Path: DefaultDBPath,
		},
		Relay: RelayConfig{
			InboxLimit:                DefaultInboxLimit,
			InboxChunkSize:            DefaultInboxChunkSize,
			InboxTextLimit:            DefaultInboxTextLimit,
			AllowedDocumentExtensions: append([]string(nil), DefaultDocumentExtensions...),
			LastMessageCacheSize:      DefaultLastMessageCacheSize,
			StoreTimeout:              DefaultStoreTimeout,
			SendTimeout:               DefaultSendTimeout,
		},
		Quarantine: QuarantineConfig{
			Dir:             DefaultQuarantineDir,
			ScannerPath:     DefaultScannerPath,
			ScanTimeout:     DefaultScanTimeout,
			DownloadTimeout: DefaultDownloadTimeout,
			MaxFileSize:     DefaultMaxFileSize,
		},
		Scheduler: SchedulerConfig{
			Tasks: map[string]TaskConfig{
				TaskSQLMaintenance:    {Enabled: true, Schedule: "0 0 3 * * *"},
				TaskQuarantineCleanup: {Enabled: false, Schedule: "0 30 3 * * *"},
			},
		},
		Messages: DefaultMessages,
	}
}
