package config

const (
	defaultRecordingsDir      = "~/.local/share/scribe/recordings"
	defaultTranscriptsDir     = "~/.local/share/scribe/transcripts"
	defaultLogDir             = "~/.local/share/scribe/logs"
	defaultLogRetentionDays   = 30
	defaultSampleRate         = 16000
	defaultChannels           = 1
	defaultWhisperEngine      = "local"
	defaultWhisperModel       = "base"
	defaultWhisperTimeout     = 1800
	defaultOpenAIModel        = "whisper-1"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNotifyTimeout      = 10
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir:  defaultRecordingsDir,
			TranscriptsDir: defaultTranscriptsDir,
			LogDir:         defaultLogDir,
		},
		Audio: Audio{
			DeviceIndex:       -1,
			SampleRate:        defaultSampleRate,
			Channels:          defaultChannels,
			ArchiveRecordings: true,
		},
		Whisper: Whisper{
			Engine:         defaultWhisperEngine,
			Model:          defaultWhisperModel,
			CacheDir:       defaultWhisperCacheDir(),
			TimeoutSeconds: defaultWhisperTimeout,
		},
		OpenAI: OpenAI{
			Model: defaultOpenAIModel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Recording:      true,
			Transcription:  true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
