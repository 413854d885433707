package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
)

// paramKey is the query parameter key used for per-param rate limiting (default: "city").
var paramKey = "city"

// SetParamKey sets the query parameter key for per-param rate limiting. Used primarily for testing.
func SetParamKey(key string) {
	paramKey = key
}

// visitor holds a rate limiter and the last time its owner was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// globalVisitors maps IP addresses to their limiter.
	globalVisitors = make(map[string]*visitor) // key: ip
	// paramVisitors maps IP addresses and parameter values to their limiter.
	paramVisitors = make(map[string]map[string]*visitor) // key: ip -> paramValue -> visitor
	muGlobal      sync.Mutex
	muParam       sync.Mutex
)

// perMinute converts a per-minute rate into a rate.Limit.
func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60.0)
}

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func getGlobalLimiter(ip string) *rate.Limiter {
	muGlobal.Lock()
	defer muGlobal.Unlock()
	v, exists := globalVisitors[ip]
	if !exists {
		r, burst := config.GetGlobalRateLimiterConfig()
		limiter := rate.NewLimiter(perMinute(r), burst)
		globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the rate limiter for the given IP address and parameter value, creating one if it does not exist.
func getParamLimiter(ip, param string) *rate.Limiter {
	muParam.Lock()
	defer muParam.Unlock()
	if _, ok := paramVisitors[ip]; !ok {
		paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := paramVisitors[ip][param]
	if !exists {
		r, burst := config.GetParamRateLimiterConfig()
		limiter := rate.NewLimiter(perMinute(r), burst)
		paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors drops entries not seen within timeout.
func cleanupVisitors(timeout time.Duration) {
	muGlobal.Lock()
	for ip, v := range globalVisitors {
		if time.Since(v.lastSeen) > timeout {
			delete(globalVisitors, ip)
		}
	}
	muGlobal.Unlock()

	muParam.Lock()
	for ip, paramMap := range paramVisitors {
		for param, v := range paramMap {
			if time.Since(v.lastSeen) > timeout {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(paramVisitors, ip)
		}
	}
	muParam.Unlock()
}

// StartRateLimiterCleanup removes stale visitors every minute until ctx is done.
func StartRateLimiterCleanup(ctx context.Context) {
	timeout := config.GetRateLimiterCleanupTimeout()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupVisitors(timeout)
			}
		}
	}()
}

// ResetVisitors clears all visitor states for both global and per-param limiters. Used primarily for testing.
func ResetVisitors() {
	muGlobal.Lock()
	for k := range globalVisitors {
		delete(globalVisitors, k)
	}
	muGlobal.Unlock()
	muParam.Lock()
	for k := range paramVisitors {
		delete(paramVisitors, k)
	}
	muParam.Unlock()
}

// getIP extracts the client's IP address from the HTTP request. X-Forwarded-For
// is only honoured when rate_limiter.trust_forwarded_for is set, since any
// client can send it.
func getIP(r *http.Request) string {
	if config.IsForwardedForTrusted() {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			return strings.TrimSpace(ips[0])
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// getParam extracts the value of the configured query parameter from the HTTP request.
func getParam(r *http.Request) string {
	return r.URL.Query().Get(paramKey)
}

func writeTooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}

// limitScope names the bucket that rejected a request.
type limitScope int

const (
	allowed limitScope = iota
	limitedGlobal
	limitedParam
)

// take spends one token from the caller's global bucket and, if that passes,
// one from its per-city bucket.
func take(r *http.Request) limitScope {
	ip := getIP(r)
	param := getParam(r)
	if param == "" {
		// If param is missing, treat as a single bucket
		param = "__none__"
	}
	globalLimiter := getGlobalLimiter(ip)
	paramLimiter := getParamLimiter(ip, param)
	if !globalLimiter.Allow() {
		return limitedGlobal
	}
	if !paramLimiter.Allow() {
		return limitedParam
	}
	return allowed
}

// Allow reports whether r fits in the caller's buckets, spending a token when
// it does. Handlers that must answer with their own page use it instead of
// RateLimitMiddleware.
func Allow(r *http.Request) bool {
	return take(r) == allowed
}

// RateLimitMiddleware returns an HTTP middleware that enforces global and per-city rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch take(r) {
		case limitedGlobal:
			globalRate, _ := config.GetGlobalRateLimiterConfig()
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", globalRate),
				"Too Many Requests (global limit)")
			return
		case limitedParam:
			paramRate, _ := config.GetParamRateLimiterConfig()
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per city per user/IP", paramRate),
				"Too Many Requests (per-city limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
