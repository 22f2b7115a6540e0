package config

import (
	"os"
	"strconv"
	"strings"

	"docvoice/internal/logger"
)

// Default prompts sent with the photographed document when no prompt file
// overrides them. The "simple" prompt asks for a short spoken-style summary,
// the "detailed" prompt for a faithful read-out of the full content.
const (
	defaultPromptSimple = `你是一個台語助手。
任務：看完這張圖片，用「最簡短的台語口語漢字」講重點。
規則：
1. 直接講結果，禁止說「這張圖是...」或「重點是...」。
2. 50字以內。
3. 嚴格禁止羅馬拼音、注音或解釋，只輸出純漢字。`

	defaultPromptDetailed = `你是一個OCR讀稿機。
任務：將圖片內容轉成「純台語漢字」。
嚴格規則：
1. **絕對禁止**羅馬拼音 (Pe̍h-ōe-jī)、注音或英語。
2. **絕對禁止**加開場白。
3. **絕對禁止**解釋含義。
4. 直接輸出內容，不要分段。
5. 遇到亂碼跳過。`
)

type Config struct {
	// Gemini Configuration
	GeminiAPIKey  string
	GeminiBaseURL string

	// Yating TTS Configuration
	YatingAPIKey string
	TTSEndpoint  string

	// Synthesis tuning
	TTSWorkers        int // concurrent downloads; kept low to respect provider rate limits
	TTSTimeoutSecs    int
	TTSChunkSize      int
	TTSMaxAttempts    int
	TTSRetryDelayMsec int

	// Voice parameters
	VoiceModel  string
	VoiceSpeed  float64
	VoicePitch  float64
	VoiceEnergy float64

	// Prompts
	PromptSimple   string
	PromptDetailed string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load builds the configuration from environment variables with defaults.
// API keys fall back to key files in the working directory so the binary can
// run without exported secrets; a key that is still empty only matters once
// a command actually needs it.
func Load() *Config {
	return &Config{
		GeminiAPIKey:  getKey("GEMINI_API_KEY", "GEMINI_API.txt"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),

		YatingAPIKey: getKey("YATING_API_KEY", "YATING_API.txt"),
		TTSEndpoint:  getEnv("TTS_API_URL", "https://tts.api.yating.tw/v2/speeches/short"),

		TTSWorkers:        getEnvInt("TTS_MAX_WORKERS", 2),
		TTSTimeoutSecs:    getEnvInt("TTS_TIMEOUT", 15),
		TTSChunkSize:      getEnvInt("TTS_CHUNK_SIZE", 80),
		TTSMaxAttempts:    getEnvInt("TTS_MAX_ATTEMPTS", 4),
		TTSRetryDelayMsec: getEnvInt("TTS_RETRY_DELAY_MS", 500),

		VoiceModel:  getEnv("TTS_VOICE_MODEL", "tai_female_1"),
		VoiceSpeed:  getEnvFloat("TTS_VOICE_SPEED", 1.0),
		VoicePitch:  getEnvFloat("TTS_VOICE_PITCH", 1.0),
		VoiceEnergy: getEnvFloat("TTS_VOICE_ENERGY", 1.0),

		PromptSimple:   getFileOrDefault("prompt_simple.txt", defaultPromptSimple),
		PromptDetailed: getFileOrDefault("prompt_detailed.txt", defaultPromptDetailed),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}
}

// Prompt returns the recognition prompt for the requested mode.
func (c *Config) Prompt(detailed bool) string {
	if detailed {
		return c.PromptDetailed
	}
	return c.PromptSimple
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getKey resolves a credential from the environment, falling back to a
// plain-text key file next to the binary.
func getKey(envName, fileName string) string {
	if value := os.Getenv(envName); value != "" {
		return strings.TrimSpace(value)
	}
	return getFileOrDefault(fileName, "")
}

func getFileOrDefault(fileName, defaultValue string) string {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return defaultValue
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return defaultValue
}
