package config

const (
	defaultConfigPath      = "~/.config/curator/config.toml"
	defaultServerURL       = "http://localhost:8081"
	defaultTimeoutSeconds  = 300
	defaultStateDir        = "~/.local/share/curator"
	defaultLogDir          = "~/.local/share/curator/logs"
	defaultFrameTags       = "dib_or_compressed"
	defaultPixelSkip       = 17
	minPixelSkip           = 16
	maxPixelSkip           = 18
	defaultCountTolerance  = 1
	defaultWidth           = 256
	defaultHeight          = 224
	defaultCropSize        = 128
	defaultCenter          = 128
	defaultThumbnailFrame  = 300
	defaultHighlightStart  = 180
	defaultHighlightEnd    = 420
	defaultAnimationStep   = 3
	defaultCompression     = 6
	defaultUploadRetries   = 2
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	minCropSize            = 16
	maxCompressionLevel    = 9
	maxUploadRetries       = 10
	defaultMaxBytesPerSec  = 0
	defaultSkipLeadingJunk = true
	defaultNotifyTimeout   = 10
)

// Environment variables consulted when the config leaves credentials unset.
const (
	EnvUsername  = "CURATOR_USERNAME"
	EnvToken     = "CURATOR_TOKEN"
	EnvServerURL = "CURATOR_SERVER_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			URL:            defaultServerURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Parser: Parser{
			FrameTags:       defaultFrameTags,
			PixelHeaderSkip: defaultPixelSkip,
			CountTolerance:  defaultCountTolerance,
			SkipLeadingJunk: defaultSkipLeadingJunk,
			Width:           defaultWidth,
			Height:          defaultHeight,
		},
		Preview: Preview{
			CropSize:       defaultCropSize,
			CenterX:        defaultCenter,
			CenterY:        defaultCenter,
			ThumbnailFrame: defaultThumbnailFrame,
			HighlightStart: defaultHighlightStart,
			HighlightEnd:   defaultHighlightEnd,
			AnimationStep:  defaultAnimationStep,
		},
		Upload: Upload{
			CompressionLevel:  defaultCompression,
			MaxBytesPerSecond: defaultMaxBytesPerSec,
			Retries:           defaultUploadRetries,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
