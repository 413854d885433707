package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/basetime"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/grid"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/metrics"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/repository"
)

// WeatherServiceInterface is what the widget needs to run one fetch.
type WeatherServiceInterface interface {
	GetObservation(ctx context.Context, city string) (model.Observation, error)
}

// WeatherService resolves a city and the current slot, then asks the repository.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	Clock       func() time.Time
	Metrics     *metrics.Metrics
}

// NewWeatherService creates a service. Without a repository the config-built
// one is used; the clock reads wall time in the provider's zone.
func NewWeatherService(repo ...repository.WeatherRepository) *WeatherService {
	var weatherRepo repository.WeatherRepository
	if len(repo) > 0 && repo[0] != nil {
		weatherRepo = repo[0]
	} else {
		weatherRepo = repository.NewWeatherRepository()
	}
	return &WeatherService{
		WeatherRepo: weatherRepo,
		Clock:       ProviderClock(config.GetKMALocation()),
	}
}

// ProviderClock returns a clock reading wall time in loc.
func ProviderClock(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// GetObservation runs lookup, slot resolution and the single API call.
func (s *WeatherService) GetObservation(ctx context.Context, city string) (model.Observation, error) {
	start := time.Now()
	obs, err := s.getObservation(ctx, city)
	s.Metrics.ObserveFetch(cityLabel(city), Outcome(err), time.Since(start))
	return obs, err
}

// cityLabel keeps the metrics city label within the fixed table.
func cityLabel(city string) string {
	if _, err := grid.Lookup(city); err != nil {
		return metrics.CityUnknown
	}
	return city
}

func (s *WeatherService) getObservation(ctx context.Context, city string) (model.Observation, error) {
	coord, err := grid.Lookup(city)
	if err != nil {
		return nil, err
	}

	baseDate, baseTime := basetime.Resolve(s.Clock())
	config.GetLogger().Debugw("Fetching observation",
		"city", city, "nx", coord.NX, "ny", coord.NY, "base_date", baseDate, "base_time", baseTime)

	obs, err := s.WeatherRepo.FetchObservation(ctx, coord, baseDate, baseTime)
	if err != nil {
		return nil, fmt.Errorf("observation for %s at %s %s: %w", city, baseDate, baseTime, err)
	}
	return obs, nil
}

// Outcome classifies err into a metrics label.
func Outcome(err error) string {
	var (
		unknownCity *grid.UnknownCityError
		transport   *repository.TransportError
		apiResult   *repository.APIResultError
		malformed   *repository.MalformedResponseError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &unknownCity):
		return metrics.OutcomeUnknownCity
	case errors.As(err, &transport):
		return metrics.OutcomeTransport
	case errors.As(err, &apiResult):
		return metrics.OutcomeAPIResult
	case errors.As(err, &malformed):
		return metrics.OutcomeMalformed
	case errors.Is(err, repository.ErrAPIKeyMissing):
		return metrics.OutcomeAPIKeyMissing
	default:
		return metrics.OutcomeOther
	}
}
