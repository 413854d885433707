// Package widget drives the city picker: selection, the fetch flow, and the
// mutually exclusive loading, result and error panels.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/presenter"
)

// ErrNoCitySelected is returned by Fetch before any city was chosen.
var ErrNoCitySelected = errors.New("no city selected")

// State is the display state of the widget.
type State int

const (
	Idle State = iota
	Ready
	Loading
	Result
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Loading:
		return "loading"
	case Result:
		return "result"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher runs one observation fetch for a city.
type Fetcher interface {
	GetObservation(ctx context.Context, city string) (model.Observation, error)
}

// Controller owns the display state and the view model of one widget.
//
// The mutex only serializes writes. Overlapping Fetch calls are not ordered:
// whichever completes last decides what is shown, even if it started first.
type Controller struct {
	mu       sync.Mutex
	fetcher  Fetcher
	clock    func() time.Time
	logger   *zap.SugaredLogger
	state    State
	city     string
	snapshot model.Observation
	view     model.ViewModel
}

// New returns an idle controller with the fetch action disabled.
func New(fetcher Fetcher, clock func() time.Time, logger *zap.SugaredLogger) *Controller {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		fetcher: fetcher,
		clock:   clock,
		logger:  logger,
		state:   Idle,
	}
}

// SelectCity records the selection. A non-empty name enables the fetch action.
// Going back to the empty choice clears the selection but never disables the
// action again, so a later Fetch reports ErrNoCitySelected.
func (c *Controller) SelectCity(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.city = name
	if name == "" {
		return
	}
	c.view.FetchEnabled = true
	if c.state == Idle {
		c.state = Ready
	}
}

// Fetch shows loading, fetches the selected city and shows the result or the
// error panel. The error is returned for logging; the view only ever shows the
// generic error panel.
func (c *Controller) Fetch(ctx context.Context) error {
	c.mu.Lock()
	city := c.city
	if city == "" {
		c.mu.Unlock()
		return ErrNoCitySelected
	}
	c.showLoading()
	c.mu.Unlock()

	obs, err := c.fetcher.GetObservation(ctx, city)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Errorw("Failed to fetch weather", "city", city, "error", err)
		c.snapshot = nil
		c.showError()
		return err
	}

	c.snapshot = obs
	presenter.Render(&c.view, obs, city, c.clock())
	c.state = Result
	return nil
}

// ShowLoading switches to the loading panel.
func (c *Controller) ShowLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLoading()
}

// ShowError switches to the error panel.
func (c *Controller) ShowError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showError()
}

func (c *Controller) showLoading() {
	c.hideAll()
	c.view.LoadingVisible = true
	c.state = Loading
}

func (c *Controller) showError() {
	c.hideAll()
	c.view.ErrorVisible = true
	c.state = Error
}

func (c *Controller) hideAll() {
	c.view.LoadingVisible = false
	c.view.ResultVisible = false
	c.view.ErrorVisible = false
}

// State returns the current display state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// City returns the selected city, or "".
func (c *Controller) City() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.city
}

// Snapshot returns the observation behind the current result, or nil.
func (c *Controller) Snapshot() model.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// View returns a copy of the view model.
func (c *Controller) View() model.ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}
