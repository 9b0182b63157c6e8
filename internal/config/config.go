package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	CaseBasePath string // blob store root holding cases/

	JudgeBaseURL string
	JudgeModel   string
	JudgeAPIKey  string
	JudgeTimeout time.Duration

	DefaultPassingScore float64
	GradingDebug        bool

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		CaseBasePath: envOr("CASE_BASE_PATH", "./data"),

		JudgeBaseURL: envOr("JUDGE_BASE", ""),
		JudgeModel:   os.Getenv("JUDGE_MODEL"),
		JudgeAPIKey:  os.Getenv("JUDGE_API_KEY"),
		JudgeTimeout: envDuration("JUDGE_TIMEOUT", 90*time.Second),

		DefaultPassingScore: envFloat("DEFAULT_PASSING_SCORE", 84),
		GradingDebug:        envBool("GRADING_DEBUG", false),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.clinsim.example"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:8081"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
