package config

const (
	defaultWaitBeforeDelete = 180
	defaultScanInterval     = 60
	defaultProcessInterval  = 5
	defaultSyncPollInterval = 10
	defaultSyncMaxWait      = 300
	defaultRetentionDays    = 7
	defaultRecoveryDir      = "~/.local/share/driftclean/trash"
	defaultLogDir           = "~/.local/share/driftclean/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			WaitBeforeDelete: defaultWaitBeforeDelete,
			ScanInterval:     defaultScanInterval,
			ProcessInterval:  defaultProcessInterval,
		},
		Sync: Sync{
			PollInterval: defaultSyncPollInterval,
			MaxWait:      defaultSyncMaxWait,
		},
		Recovery: Recovery{
			Enabled:       true,
			Directory:     defaultRecoveryDir,
			RetentionDays: defaultRetentionDays,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			Directory: defaultLogDir,
		},
	}
}
