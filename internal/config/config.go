package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Display modes accepted by DISPLAY_MODE.
const (
	DisplayWindow = "window"
	DisplayFile   = "file"
	DisplayNone   = "none"
)

type Config struct {
	SampleDirectory   string
	CacheDirectory    string
	OutputDirectory   string
	LogDirectory      string
	LogLevel          string
	DatabasePath      string // empty disables run history
	Display           string
	DisplayWaitMillis int // how long a window waits for a key
	OutputBufferLimit int // frames kept per run before the file sink drops new ones
	OverlayColor      string
	Port              int

	Counter CounterConfig
}

// CounterConfig holds the vehicle counter settings.
type CounterConfig struct {
	VideoPath        string
	LineY            int
	LineStartX       int
	LineEndX         int
	LineOffset       int
	MinWidth         int
	MinHeight        int
	Mode             string
	MatchRadius      int
	FrameDelayMillis int
	FrameStride      int // process every N-th frame
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; variables already set in the environment win over the file.
func LoadFile(envFile string) *Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		SampleDirectory:   getEnv("SAMPLE_DIR", filepath.Join(".", "samples")),
		CacheDirectory:    getEnv("CACHE_DIR", filepath.Join(os.TempDir(), "cvlab")),
		OutputDirectory:   getEnv("OUTPUT_DIR", filepath.Join(".", "output")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabasePath:      os.Getenv("DB_PATH"),
		Display:           strings.ToLower(getEnv("DISPLAY_MODE", DisplayWindow)),
		DisplayWaitMillis: getEnvAsInt("DISPLAY_WAIT_MS", 10000),
		OutputBufferLimit: getEnvAsInt("OUTPUT_BUFFER_LIMIT", 32),
		OverlayColor:      getEnv("OVERLAY_COLOR", "#ff0000"),
		Port:              getEnvAsInt("PORT", 8080),
		Counter: CounterConfig{
			VideoPath:        os.Getenv("COUNTER_VIDEO"),
			LineY:            getEnvAsInt("COUNTER_LINE_Y", 600),
			LineStartX:       getEnvAsInt("COUNTER_LINE_START_X", 10),
			LineEndX:         getEnvAsInt("COUNTER_LINE_END_X", 1200),
			LineOffset:       getEnvAsInt("COUNTER_LINE_OFFSET", 6),
			MinWidth:         getEnvAsInt("COUNTER_MIN_WIDTH", 90),
			MinHeight:        getEnvAsInt("COUNTER_MIN_HEIGHT", 90),
			Mode:             strings.ToLower(getEnv("COUNTER_MODE", "crossing")),
			MatchRadius:      getEnvAsInt("COUNTER_MATCH_RADIUS", 30),
			FrameDelayMillis: getEnvAsInt("COUNTER_FRAME_DELAY_MS", 25),
			FrameStride:      getEnvAsInt("COUNTER_FRAME_STRIDE", 1),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
