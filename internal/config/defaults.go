package config

const (
	defaultStoreDir             = "~/.local/share/roastreel/media"
	defaultLogDir               = "~/.local/share/roastreel/logs"
	defaultAPIBind              = "127.0.0.1:7583"
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com"
	defaultScriptModel          = "gemini-3.1-pro-preview"
	defaultVideoModel           = "veo-3.1-fast-generate-preview"
	defaultSceneCount           = 2
	defaultMaxDocumentBytes     = 10 << 20
	defaultVideoPollInterval    = 15
	defaultGeminiRequestTimeout = 60
	defaultVideoStageTimeout    = 600
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StoreDir: defaultStoreDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Gemini: Gemini{
			BaseURL:           defaultGeminiBaseURL,
			ScriptModel:       defaultScriptModel,
			VideoModel:        defaultVideoModel,
			SceneCount:        defaultSceneCount,
			MaxDocumentBytes:  defaultMaxDocumentBytes,
			VideoPollInterval: defaultVideoPollInterval,
			RequestTimeout:    defaultGeminiRequestTimeout,
		},
		Workflow: Workflow{
			VideoStageTimeout: defaultVideoStageTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
