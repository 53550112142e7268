package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"conkiri_sight/internal/domain"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	SightBase      string
	SightPrefix    string
	SightToken     string
	SightTimeout   time.Duration
	SightRPS       int
	Workers        int
	ArchiveTargets []domain.ArchiveTarget
	ArchiveMine    bool
	CacheTTL       time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		LogLevel:     env("LOG_LEVEL", "info"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ""),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/sight?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),
		SightBase:    env("SIGHT_BASE_URL", "http://localhost:8080"),
		SightPrefix:  env("SIGHT_API_PREFIX", "/api/v1"),
		SightToken:   env("SIGHT_API_TOKEN", ""),
		SightTimeout: time.Duration(atoi("SIGHT_TIMEOUT_MS", 10000)) * time.Millisecond,
		SightRPS:     atoi("SIGHT_RPS", 0),
		Workers:      atoi("ARCHIVE_WORKERS", 4),
		ArchiveMine:  env("ARCHIVE_MINE", "false") == "true",
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if raw := os.Getenv("ARCHIVE_TARGETS"); raw != "" {
		ts, err := ParseTargets(raw)
		if err != nil {
			log.Warn().Err(err).Msg("ARCHIVE_TARGETS ignored")
		}
		c.ArchiveTargets = ts
	}
	if c.SightToken == "" {
		log.Warn().Msg("SIGHT_API_TOKEN is empty")
	}
	return c
}

// ParseTargets reads "arenaId:stageType:section[:seatId]" entries separated
// by commas. Malformed entries are reported and skipped.
func ParseTargets(raw string) ([]domain.ArchiveTarget, error) {
	var (
		out []domain.ArchiveTarget
		bad []string
	)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 && len(parts) != 4 {
			bad = append(bad, item)
			continue
		}
		nums := make([]int64, len(parts))
		ok := true
		for i, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				ok = false
				break
			}
			nums[i] = n
		}
		if !ok {
			bad = append(bad, item)
			continue
		}
		t := domain.ArchiveTarget{
			ArenaID: nums[0],
			Query:   domain.ArenaReviewsQuery{StageType: int(nums[1]), Section: nums[2]},
		}
		if len(nums) == 4 {
			seat := nums[3]
			t.Query.SeatID = &seat
		}
		out = append(out, t)
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("malformed targets %q, want arenaId:stageType:section[:seatId]", bad)
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
