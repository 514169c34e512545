package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env string

	// Huddle API (REST)
	HuddleBaseURL string
	HuddleAPIKey  string

	// Supabase Postgres (assignments / progress tables)
	SupabaseDBURL string

	// Local state
	StateDir string

	// Progress sync tuning
	SyncCacheTTL      time.Duration
	SyncBatchSize     int
	SyncMaxConcurrent int
	SyncChunkDelay    time.Duration

	// SFTP drop for exported reports
	SFTPHost      string
	SFTPPort      int
	SFTPUser      string
	SFTPPass      string
	SFTPRemoteDir string
}

func Load() Config {
	return Config{
		Env: getenv("APP_ENV", "local"),

		// Huddle
		HuddleBaseURL: os.Getenv("HUDDLE_BASE_URL"),
		HuddleAPIKey:  os.Getenv("HUDDLE_API_KEY"),

		// Supabase
		SupabaseDBURL: os.Getenv("SUPABASE_DB_URL"),

		StateDir: getenv("STATE_DIR", ".state"),

		// defaults match the production client behavior
		SyncCacheTTL:      getenvDuration("SYNC_CACHE_TTL", 45*time.Second),
		SyncBatchSize:     getenvInt("SYNC_BATCH_SIZE", 25),
		SyncMaxConcurrent: getenvInt("SYNC_MAX_CONCURRENT", 2),
		SyncChunkDelay:    getenvDuration("SYNC_CHUNK_DELAY", 50*time.Millisecond),

		// SFTP
		SFTPHost:      os.Getenv("SFTP_HOST"),
		SFTPPort:      getenvInt("SFTP_PORT", 22),
		SFTPUser:      os.Getenv("SFTP_USER"),
		SFTPPass:      os.Getenv("SFTP_PASS"),
		SFTPRemoteDir: getenv("SFTP_REMOTE_DIR", "/"),
	}
}

// HuddleEnabled reports whether the remote REST integration is configured.
// When false the tools run in local-only mode; that is not an error.
func (c Config) HuddleEnabled() bool {
	return c.HuddleBaseURL != ""
}

// SupabaseEnabled reports whether the Postgres backend is configured.
func (c Config) SupabaseEnabled() bool {
	return c.SupabaseDBURL != ""
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
