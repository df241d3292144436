package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	NATSURL     string // ARENA_NATS_URL (required; transport for events, voice bridge, lastgame KV)
	DatabaseURL string // ARENA_DATABASE_URL (optional, empty = stats/achievements disabled)
	HTTPAddr    string // ARENA_HTTP_ADDR (default ":8080")
	AuthToken   string // ARENA_AUTH_TOKEN (optional; empty disables HTTP auth)
	Origin      string // ARENA_ORIGIN (this process's id on the voice channel; default generated)

	GameCodeName    string // ARENA_GAME_CODE (required)
	GameName        string // ARENA_GAME_NAME (default = code name)
	GameDescription string // ARENA_GAME_DESC (optional)
	FreeMode        bool   // ARENA_FREE_MODE (default false)

	Countdown        time.Duration // ARENA_COUNTDOWN (default 60s)
	ReconnectWindow  time.Duration // ARENA_RECONNECT_WINDOW (default 5m)
	VoiceCallTimeout time.Duration // ARENA_VOICE_TIMEOUT (default 15s)

	PermsFile string // ARENA_PERMS_FILE (optional TOML permission/group table)

	// Round summary archive settings
	ArchiveDir        string // ARENA_ARCHIVE_DIR (enables filesystem export when set)
	ArchiveS3Bucket   string // ARENA_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string // ARENA_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string // ARENA_S3_REGION (default "us-east-1")
	ArchiveS3Prefix   string // ARENA_S3_PREFIX (default "arena/rounds")
}

func Load() (*Config, error) {
	c := &Config{
		NATSURL:           os.Getenv("ARENA_NATS_URL"),
		DatabaseURL:       os.Getenv("ARENA_DATABASE_URL"),
		HTTPAddr:          envOrDefault("ARENA_HTTP_ADDR", ":8080"),
		AuthToken:         os.Getenv("ARENA_AUTH_TOKEN"),
		Origin:            os.Getenv("ARENA_ORIGIN"),
		GameCodeName:      os.Getenv("ARENA_GAME_CODE"),
		GameName:          os.Getenv("ARENA_GAME_NAME"),
		GameDescription:   os.Getenv("ARENA_GAME_DESC"),
		FreeMode:          os.Getenv("ARENA_FREE_MODE") == "true",
		PermsFile:         os.Getenv("ARENA_PERMS_FILE"),
		ArchiveDir:        os.Getenv("ARENA_ARCHIVE_DIR"),
		ArchiveS3Bucket:   os.Getenv("ARENA_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("ARENA_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("ARENA_S3_REGION", "us-east-1"),
		ArchiveS3Prefix:   envOrDefault("ARENA_S3_PREFIX", "arena/rounds"),
	}
	if c.NATSURL == "" {
		return nil, fmt.Errorf("ARENA_NATS_URL is required")
	}
	if c.GameCodeName == "" {
		return nil, fmt.Errorf("ARENA_GAME_CODE is required")
	}
	if c.GameName == "" {
		c.GameName = c.GameCodeName
	}

	var err error
	if c.Countdown, err = durationEnv("ARENA_COUNTDOWN", time.Minute); err != nil {
		return nil, err
	}
	if c.ReconnectWindow, err = durationEnv("ARENA_RECONNECT_WINDOW", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.VoiceCallTimeout, err = durationEnv("ARENA_VOICE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
