package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/grid"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/redis"
)

// WeatherRepository defines the interface for observation data access
type WeatherRepository interface {
	FetchObservation(ctx context.Context, coord grid.Coord, baseDate, baseTime string) (model.Observation, error)
}

// redisClient is the subset of *redisv9.Client the slot cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// weatherRepository implements WeatherRepository against getUltraSrtNcst.
type weatherRepository struct {
	redisClient redisClient // nil disables the slot cache
	transport   Transport
	apiURL      string
	serviceKey  string
	pageNo      int
	numOfRows   int
	dataType    string
	expiration  time.Duration
}

// NewWeatherRepository creates a repository from config. The first transport,
// if given, replaces the direct default.
func NewWeatherRepository(transport ...Transport) WeatherRepository {
	var t Transport = DirectTransport{Client: http.DefaultClient}
	if len(transport) > 0 && transport[0] != nil {
		t = transport[0]
	}

	pageNo, numOfRows := config.GetKMAPaging()
	repo := &weatherRepository{
		transport:  t,
		apiURL:     config.GetKMAApiUrl(),
		serviceKey: config.GetKMAServiceKey(),
		pageNo:     pageNo,
		numOfRows:  numOfRows,
		dataType:   config.GetKMADataType(),
		expiration: config.GetCacheExpiration(),
	}
	if config.IsCacheEnabled() {
		repo.redisClient = redis.GetClient()
	}
	return repo
}

// FetchObservation returns the observation for one grid cell and slot,
// checking the slot cache first.
func (r *weatherRepository) FetchObservation(ctx context.Context, coord grid.Coord, baseDate, baseTime string) (model.Observation, error) {
	key := cacheKey(coord, baseDate, baseTime)

	if r.redisClient != nil {
		if cached, err := r.getFromCache(ctx, key); err == nil {
			return cached, nil
		}
	}

	obs, err := r.fetchFromExternalAPI(ctx, coord, baseDate, baseTime)
	if err != nil {
		return nil, err
	}

	if r.redisClient != nil {
		r.cacheObservation(ctx, key, obs)
	}
	return obs, nil
}

func cacheKey(coord grid.Coord, baseDate, baseTime string) string {
	return fmt.Sprintf("weather:ncst:%d:%d:%s%s", coord.NX, coord.NY, baseDate, baseTime)
}

// getFromCache retrieves a snapshot from Redis
func (r *weatherRepository) getFromCache(ctx context.Context, key string) (model.Observation, error) {
	val, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redisv9.Nil) {
			config.GetLogger().Warnw("Slot cache read failed", "key", key, "error", err)
		}
		return nil, err
	}

	var obs model.Observation
	if err := json.Unmarshal([]byte(val), &obs); err != nil {
		config.GetLogger().Warnw("Slot cache entry unreadable", "key", key, "error", err)
		return nil, err
	}
	config.GetLogger().Debugw("Slot cache hit", "key", key)
	return obs, nil
}

// cacheObservation stores a successful snapshot; failures are only logged.
func (r *weatherRepository) cacheObservation(ctx context.Context, key string, obs model.Observation) {
	b, err := json.Marshal(obs)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, key, b, r.expiration).Err(); err != nil {
		config.GetLogger().Warnw("Slot cache write failed", "key", key, "error", err)
	}
}

// fetchFromExternalAPI performs one GET with no retry and validates the envelope.
func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, coord grid.Coord, baseDate, baseTime string) (model.Observation, error) {
	if r.serviceKey == "" {
		return nil, ErrAPIKeyMissing
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.requestURL(coord, baseDate, baseTime), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.transport.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	// The status code is not checked: data.go.kr reports failures in the
	// envelope, and anything that is not an envelope is malformed.
	var envelope model.NcstResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if envelope.Response == nil || envelope.Response.Header == nil {
		return nil, &MalformedResponseError{Err: errors.New("missing response.header")}
	}

	header := envelope.Response.Header
	if header.ResultCode != model.ResultCodeOK {
		return nil, &APIResultError{Code: header.ResultCode, Message: header.ResultMsg}
	}

	return model.NewObservation(envelope.Response.Body.Items.Item), nil
}

func (r *weatherRepository) requestURL(coord grid.Coord, baseDate, baseTime string) string {
	values := url.Values{}
	values.Set("pageNo", strconv.Itoa(r.pageNo))
	values.Set("numOfRows", strconv.Itoa(r.numOfRows))
	values.Set("dataType", r.dataType)
	values.Set("base_date", baseDate)
	values.Set("base_time", baseTime)
	values.Set("nx", strconv.Itoa(coord.NX))
	values.Set("ny", strconv.Itoa(coord.NY))

	return r.apiURL + "?serviceKey=" + encodeServiceKey(r.serviceKey) + "&" + values.Encode()
}

// encodeServiceKey escapes a raw key. data.go.kr also hands out a pre-encoded
// variant ("...%2B...%3D%3D"); that one is sent unchanged.
func encodeServiceKey(key string) string {
	if strings.Contains(key, "%") {
		if _, err := url.QueryUnescape(key); err == nil {
			return key
		}
	}
	return url.QueryEscape(key)
}
