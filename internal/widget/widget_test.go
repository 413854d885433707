package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
)

var now = time.Date(2026, 10, 19, 14, 5, 0, 0, time.FixedZone("KST", 9*60*60))

func clock() time.Time { return now }

type fetchFunc func(ctx context.Context, city string) (model.Observation, error)

func (f fetchFunc) GetObservation(ctx context.Context, city string) (model.Observation, error) {
	return f(ctx, city)
}

func staticFetcher(obs model.Observation, err error) Fetcher {
	return fetchFunc(func(context.Context, string) (model.Observation, error) {
		return obs, err
	})
}

// assertExclusive checks that at most one panel is visible and that it is the
// one belonging to the state.
func assertExclusive(t *testing.T, c *Controller) {
	t.Helper()
	v := c.View()
	visible := 0
	for _, b := range []bool{v.LoadingVisible, v.ResultVisible, v.ErrorVisible} {
		if b {
			visible++
		}
	}

	switch c.State() {
	case Idle, Ready:
		assert.Equal(t, 0, visible)
	case Loading:
		assert.True(t, v.LoadingVisible)
		assert.Equal(t, 1, visible)
	case Result:
		assert.True(t, v.ResultVisible)
		assert.Equal(t, 1, visible)
	case Error:
		assert.True(t, v.ErrorVisible)
		assert.Equal(t, 1, visible)
	}
}

func TestNew_StartsIdleWithFetchDisabled(t *testing.T) {
	c := New(staticFetcher(nil, nil), clock, nil)

	assert.Equal(t, Idle, c.State())
	assert.False(t, c.View().FetchEnabled)
	assertExclusive(t, c)
}

func TestSelectCity(t *testing.T) {
	c := New(staticFetcher(nil, nil), clock, nil)

	c.SelectCity("")
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.View().FetchEnabled)

	c.SelectCity("수원시")
	assert.Equal(t, Ready, c.State())
	assert.True(t, c.View().FetchEnabled)
	assert.Equal(t, "수원시", c.City())

	// Clearing the selector keeps the action enabled but drops the choice.
	c.SelectCity("")
	assert.Equal(t, "", c.City())
	assert.True(t, c.View().FetchEnabled)
	assert.ErrorIs(t, c.Fetch(context.Background()), ErrNoCitySelected)
	assert.Equal(t, Ready, c.State())
}

func TestFetch_WithoutSelection(t *testing.T) {
	called := false
	c := New(fetchFunc(func(context.Context, string) (model.Observation, error) {
		called = true
		return nil, nil
	}), clock, nil)

	err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoCitySelected)
	assert.False(t, called)
	assert.Equal(t, Idle, c.State())
}

func TestFetch_ShowsLoadingWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	c := New(fetchFunc(func(context.Context, string) (model.Observation, error) {
		close(entered)
		<-release
		return model.Observation{"T1H": "1"}, nil
	}), clock, nil)
	c.SelectCity("수원시")

	done := make(chan error, 1)
	go func() { done <- c.Fetch(context.Background()) }()

	<-entered
	assert.Equal(t, Loading, c.State())
	assertExclusive(t, c)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Result, c.State())
	assertExclusive(t, c)
}

func TestFetch_Success(t *testing.T) {
	obs := model.Observation{"T1H": "15", "REH": "60", "WSD": "2.1", "SKY": "1", "PTY": "0"}
	c := New(staticFetcher(obs, nil), clock, nil)
	c.SelectCity("수원시")

	require.NoError(t, c.Fetch(context.Background()))

	v := c.View()
	assert.Equal(t, Result, c.State())
	assert.Equal(t, "수원시", v.CityName)
	assert.Equal(t, "15", v.Temperature)
	assert.Equal(t, "60%", v.Humidity)
	assert.Equal(t, "2.1 m/s", v.WindSpeed)
	assert.Equal(t, "맑음", v.Condition)
	assert.Equal(t, "2026년 10월 19일 14:05 기준", v.UpdateTime)
	assert.Equal(t, obs, c.Snapshot())
	assertExclusive(t, c)
}

func TestFetch_FailureShowsGenericError(t *testing.T) {
	boom := errors.New("boom")
	c := New(staticFetcher(nil, boom), clock, nil)
	c.SelectCity("수원시")

	err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Error, c.State())
	assert.Nil(t, c.Snapshot())
	assertExclusive(t, c)

	// The widget stays usable.
	assert.True(t, c.View().FetchEnabled)
}

func TestFetch_TransitionsFromResultAndError(t *testing.T) {
	var (
		mu  sync.Mutex
		err error
	)
	c := New(fetchFunc(func(context.Context, string) (model.Observation, error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			return nil, err
		}
		return model.Observation{"T1H": "9"}, nil
	}), clock, nil)
	c.SelectCity("안양시")

	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, Result, c.State())

	mu.Lock()
	err = errors.New("down")
	mu.Unlock()
	assert.Error(t, c.Fetch(context.Background()))
	assert.Equal(t, Error, c.State())
	assertExclusive(t, c)

	mu.Lock()
	err = nil
	mu.Unlock()
	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, Result, c.State())
	assertExclusive(t, c)
}

func TestShowLoadingAndShowError(t *testing.T) {
	c := New(staticFetcher(nil, nil), clock, nil)

	c.ShowLoading()
	assert.Equal(t, Loading, c.State())
	assertExclusive(t, c)

	c.ShowError()
	assert.Equal(t, Error, c.State())
	assertExclusive(t, c)
}

func TestFetch_Idempotent(t *testing.T) {
	obs := model.Observation{"T1H": "15", "REH": "60", "WSD": "2.1", "SKY": "3", "PTY": "0"}
	c := New(staticFetcher(obs, nil), clock, nil)
	c.SelectCity("부천시")

	require.NoError(t, c.Fetch(context.Background()))
	first := c.View()
	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, first, c.View())
}

// Overlapping fetches are not ordered: the one that completes last wins even
// when it was started first. This is a known latent race, kept on purpose.
func TestFetch_OverlappingFetchesLastCompletionWins(t *testing.T) {
	slowRelease := make(chan struct{})
	slowEntered := make(chan struct{})

	c := New(fetchFunc(func(_ context.Context, city string) (model.Observation, error) {
		if city == "수원시" {
			close(slowEntered)
			<-slowRelease
			return model.Observation{"T1H": "15"}, nil
		}
		return model.Observation{"T1H": "20"}, nil
	}), clock, nil)

	c.SelectCity("수원시")
	slowDone := make(chan error, 1)
	go func() { slowDone <- c.Fetch(context.Background()) }()
	<-slowEntered

	c.SelectCity("고양시")
	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, "고양시", c.View().CityName)
	assert.Equal(t, "20", c.View().Temperature)

	close(slowRelease)
	require.NoError(t, <-slowDone)

	v := c.View()
	assert.Equal(t, "수원시", v.CityName)
	assert.Equal(t, "15", v.Temperature)
	// The selector still says 고양시 while the panel shows 수원시.
	assert.Equal(t, "고양시", c.City())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "result", Result.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", State(42).String())
}
