package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/grid"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/metrics"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/repository"
)

// Mock repository for testing
type mockWeatherRepository struct {
	err      error
	mockData model.Observation

	gotCoord    grid.Coord
	gotBaseDate string
	gotBaseTime string
	calls       int
}

func (m *mockWeatherRepository) FetchObservation(ctx context.Context, coord grid.Coord, baseDate, baseTime string) (model.Observation, error) {
	m.calls++
	m.gotCoord, m.gotBaseDate, m.gotBaseTime = coord, baseDate, baseTime
	if m.err != nil {
		return nil, m.err
	}
	return m.mockData, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var kst = time.FixedZone("KST", 9*60*60)

func TestWeatherService_GetObservation(t *testing.T) {
	repo := &mockWeatherRepository{mockData: model.Observation{"T1H": "15"}}
	svc := &WeatherService{
		WeatherRepo: repo,
		Clock:       fixedClock(time.Date(2026, 10, 19, 14, 12, 0, 0, kst)),
	}

	obs, err := svc.GetObservation(context.Background(), "수원시")
	require.NoError(t, err)
	assert.Equal(t, "15", obs["T1H"])
	assert.Equal(t, grid.Coord{NX: 60, NY: 121}, repo.gotCoord)
	assert.Equal(t, "20261019", repo.gotBaseDate)
	assert.Equal(t, "1300", repo.gotBaseTime)
}

func TestWeatherService_UnknownCity(t *testing.T) {
	repo := &mockWeatherRepository{}
	svc := &WeatherService{WeatherRepo: repo, Clock: time.Now}

	_, err := svc.GetObservation(context.Background(), "서울시")
	var unknown *grid.UnknownCityError
	assert.ErrorAs(t, err, &unknown)
	assert.Zero(t, repo.calls)
}

func TestWeatherService_WrapsRepositoryErrors(t *testing.T) {
	apiErr := &repository.APIResultError{Code: "03", Message: "NO_DATA"}
	svc := &WeatherService{
		WeatherRepo: &mockWeatherRepository{err: apiErr},
		Clock:       fixedClock(time.Date(2026, 10, 19, 14, 40, 0, 0, kst)),
	}

	_, err := svc.GetObservation(context.Background(), "고양시")
	var got *repository.APIResultError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "03", got.Code)
	assert.Contains(t, err.Error(), "고양시")
	assert.Contains(t, err.Error(), "20261019 1400")
}

func TestWeatherService_RecordsMetrics(t *testing.T) {
	m := metrics.NewMetrics("test")
	svc := &WeatherService{
		WeatherRepo: &mockWeatherRepository{mockData: model.Observation{}},
		Clock:       time.Now,
		Metrics:     m,
	}

	_, _ = svc.GetObservation(context.Background(), "수원시")
	_, _ = svc.GetObservation(context.Background(), "없는시")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("수원시", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues(metrics.CityUnknown, metrics.OutcomeUnknownCity)))
}

func TestWeatherService_MetricsCityLabelsStayBounded(t *testing.T) {
	m := metrics.NewMetrics("test")
	svc := &WeatherService{
		WeatherRepo: &mockWeatherRepository{mockData: model.Observation{}},
		Clock:       time.Now,
		Metrics:     m,
	}

	for i := 0; i < 500; i++ {
		_, _ = svc.GetObservation(context.Background(), fmt.Sprintf("junk-%d", i))
	}
	_, _ = svc.GetObservation(context.Background(), "수원시")

	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchTotal))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues(metrics.CityUnknown, metrics.OutcomeUnknownCity)))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeOK},
		{&grid.UnknownCityError{Name: "x"}, metrics.OutcomeUnknownCity},
		{&repository.TransportError{Err: errors.New("refused")}, metrics.OutcomeTransport},
		{&repository.APIResultError{Code: "03"}, metrics.OutcomeAPIResult},
		{&repository.MalformedResponseError{Err: errors.New("eof")}, metrics.OutcomeMalformed},
		{repository.ErrAPIKeyMissing, metrics.OutcomeAPIKeyMissing},
		{errors.New("boom"), metrics.OutcomeOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "err %v", tt.err)
	}
}

func TestNewWeatherService(t *testing.T) {
	service := NewWeatherService()
	require.NotNil(t, service)
	assert.NotNil(t, service.WeatherRepo)

	_, offset := service.Clock().Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestNewWeatherService_NilRepo(t *testing.T) {
	service := NewWeatherService(nil)
	if service == nil {
		t.Error("Expected service to be created with nil repo")
	}
}
