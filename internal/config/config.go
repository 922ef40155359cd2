package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is loaded once at startup and injected; nothing reads the
// environment after that.
type Config struct {
	ListenAddr       string
	BaseURL          string
	DBPath           string
	SteamAPIKey      string
	SteamCallbackURL string

	// UserMaxMatches caps matches per non-admin owner; negative
	// disables the quota.
	UserMaxMatches         int
	AdminsAccessAllMatches bool
	AdminSteamIDs          []string

	// MockRcon skips server probes and config pushes, for testing.
	MockRcon bool

	DefaultMapPool []string
}

func Load() Config {
	return Config{
		ListenAddr:             getenv("LISTEN_ADDR", ":8080"),
		BaseURL:                getenv("BASE_URL", "http://localhost:8080"),
		DBPath:                 getenv("DB_PATH", "get5.db"),
		SteamAPIKey:            os.Getenv("STEAM_API_KEY"),
		SteamCallbackURL:       getenv("STEAM_CALLBACK_URL", "http://localhost:8080/auth/steam/callback"),
		UserMaxMatches:         getenvInt("USER_MAX_MATCHES", 10),
		AdminsAccessAllMatches: getenvBool("ADMINS_ACCESS_ALL_MATCHES", true),
		AdminSteamIDs:          splitList(os.Getenv("ADMIN_STEAM_IDS")),
		MockRcon:               getenvBool("MOCK_RCON", false),
		DefaultMapPool: splitList(getenv("DEFAULT_MAPLIST",
			"de_dust2 de_mirage de_inferno de_nuke de_train de_overpass de_vertigo")),
	}
}

func (c Config) IsAdminSteamID(steamID string) bool {
	for _, id := range c.AdminSteamIDs {
		if id == steamID {
			return true
		}
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
