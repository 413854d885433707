package config

import (
	"flag"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func initConfig() {
	once.Do(func() {
		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
		}

		err = viper.MergeInConfig()
		if err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetKMAApiUrl() string {
	initConfig()
	return viper.GetString("kma.api_url")
}

// GetKMAServiceKey returns the data.go.kr credential. It may be either the raw
// key or the percent-encoded form shown on the portal.
func GetKMAServiceKey() string {
	_ = godotenv.Load()
	return os.Getenv("KMA_SERVICE_KEY")
}

// GetKMAPaging returns pageNo and numOfRows. Defaults to 1 and 1000.
func GetKMAPaging() (pageNo, numOfRows int) {
	initConfig()
	pageNo = viper.GetInt("kma.page_no")
	if pageNo == 0 {
		pageNo = 1
	}
	numOfRows = viper.GetInt("kma.num_of_rows")
	if numOfRows == 0 {
		numOfRows = 1000
	}
	return
}

func GetKMADataType() string {
	initConfig()
	dt := viper.GetString("kma.data_type")
	if dt == "" {
		return "JSON"
	}
	return dt
}

// GetKMALocation returns the time zone the provider publishes in.
// Falls back to a fixed +09:00 zone when tzdata is unavailable.
func GetKMALocation() *time.Location {
	initConfig()
	name := viper.GetString("kma.timezone")
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		GetLogger().Warnw("Unknown timezone, using KST", "timezone", name, "error", err)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func GetKMATransport() string {
	initConfig()
	return viper.GetString("kma.transport")
}

func GetKMAProxyUrl() string {
	initConfig()
	return viper.GetString("kma.proxy_url")
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func IsCacheEnabled() bool {
	initConfig()
	return viper.GetBool("cache.enabled")
}

// GetCacheExpiration returns the slot cache TTL. Defaults to 10m if not set or invalid.
func GetCacheExpiration() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("cache.expiration"))
	if err != nil || dur <= 0 {
		return 10 * time.Minute
	}
	return dur
}

// GetServerTimeout returns server.<key> as a duration, or fallback when unset.
func GetServerTimeout(key string, fallback time.Duration) time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("server." + key))
	if err != nil {
		return fallback
	}
	return dur
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-city rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}

// IsForwardedForTrusted reports whether the server sits behind a proxy whose
// X-Forwarded-For header may be used as the client address.
func IsForwardedForTrusted() bool {
	initConfig()
	return viper.GetBool("rate_limiter.trust_forwarded_for")
}
