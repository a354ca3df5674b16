package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every knob the service reads from the environment. Load is
// called once in main after godotenv; components receive values, never os.Getenv.
type Config struct {
	Port string

	// Podcast search service
	SearchBaseURL string
	SearchAPIKey  string
	SearchTimeout time.Duration

	// Audio extraction
	TempDir          string
	DownloaderBinary string
	TranscoderBinary string
	DownloadTimeout  time.Duration
	TrimTimeout      time.Duration
	MinAudioBytes    int64
	DirectRange      bool
	WindowSeconds    int

	// Speech to text
	TranscribeURL     string
	TranscribeAPIKey  string
	TranscribeModel   string
	TranscribeTimeout time.Duration

	// Language model
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Notion writer
	NotionToken      string
	NotionDatabaseID string

	// Audit sink: postgres connection string, empty = log-only sink
	AuditDSN string

	// Recent-insights store
	StoreCapacity int
}

func Load() Config {
	return Config{
		Port: envOr("PORT", "8080"),

		SearchBaseURL: envOr("SEARCH_API_URL", ""),
		SearchAPIKey:  envOr("SEARCH_API_KEY", ""),
		SearchTimeout: envDuration("SEARCH_TIMEOUT_SEC", 15),

		TempDir:          envOr("AUDIO_TEMP_DIR", os.TempDir()),
		DownloaderBinary: envOr("DOWNLOADER_BIN", "yt-dlp"),
		TranscoderBinary: envOr("TRANSCODER_BIN", "ffmpeg"),
		DownloadTimeout:  envDuration("DOWNLOAD_TIMEOUT_SEC", 300),
		TrimTimeout:      envDuration("TRIM_TIMEOUT_SEC", 60),
		MinAudioBytes:    int64(envInt("MIN_AUDIO_BYTES", 10*1024)),
		DirectRange:      os.Getenv("AUDIO_DIRECT_RANGE") == "true",
		WindowSeconds:    envInt("WINDOW_SECONDS", 30),

		TranscribeURL:     envOr("TRANSCRIBE_URL", "https://api.openai.com/v1/audio/transcriptions"),
		TranscribeAPIKey:  envOr("TRANSCRIBE_API_KEY", os.Getenv("OPENAI_API_KEY")),
		TranscribeModel:   envOr("TRANSCRIBE_MODEL", "whisper-1"),
		TranscribeTimeout: envDuration("TRANSCRIBE_TIMEOUT_SEC", 60),

		LLMBaseURL: envOr("LLM_GATEWAY_URL", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:  envOr("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMModel:   envOr("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout: envDuration("LLM_TIMEOUT_SEC", 30),

		NotionToken:      envOr("NOTION_TOKEN", ""),
		NotionDatabaseID: envOr("NOTION_DATABASE_ID", ""),

		AuditDSN: envOr("AUDIT_DSN", ""),

		StoreCapacity: envInt("STORE_CAPACITY", 50),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, defSec int) time.Duration {
	return time.Duration(envInt(k, defSec)) * time.Second
}
