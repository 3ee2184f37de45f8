package config

const (
	// Monitor Defaults
	DefaultCheckIntervalSeconds  = 30
	DefaultHistorySize           = 100
	DefaultHTTPTimeoutSeconds    = 30
	DefaultMaxContentSize        = 5 * 1024 * 1024
	DefaultObserverDebounceMs    = 2000
	MinObserverDebounceMs        = 2000
	DefaultUserAgent             = "Mozilla/5.0 (compatible; keywatch)"
	DefaultTimerKind             = TimerKindTicker
	DefaultInitialURL            = "https://bbs.woa.com/forum/view/3835"
	DefaultInitialKeyword        = "apple"
	TimerKindTicker              = "ticker"
	TimerKindAlarm               = "alarm"
	DefaultNotificationTitleForm = "Keyword \"%s\" found on page"

	// Storage Defaults
	DefaultSQLitePath      = "data/keywatch.db"
	DefaultScanResultsSize = 10

	// Notification Defaults
	DefaultBadgeColor      = "#FF0000"
	DefaultDiscordUsername = "keywatch"
	DefaultSMTPPort        = 587

	// Server Defaults
	DefaultListenAddr          = "127.0.0.1:8787"
	DefaultReadTimeoutSeconds  = 10
	DefaultWriteTimeoutSeconds = 30

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
)
