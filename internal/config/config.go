package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr      string
	DBPath    string
	FeedLimit int
	FeedMax   int
	Version   string
	Commit    string
	BuildTime string
}

func Load() Config {
	addr := envString("DEEPCLAW_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3000"
		}
	}
	return Config{
		Addr:      addr,
		DBPath:    envString("DEEPCLAW_DB", "deepclaw.db"),
		FeedLimit: envInt("DEEPCLAW_FEED_LIMIT", 20),
		FeedMax:   envInt("DEEPCLAW_FEED_MAX", 100),
		Version:   "1.0.0",
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
