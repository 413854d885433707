package handler

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/grid"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/middleware"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/service"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/widget"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	msgMissingCity  = "Missing 'city' query parameter"
	msgFetchFailed  = "Failed to fetch weather data"
	msgNotAllowed   = "Method not allowed"
	msgSelectCity   = "시/군을 선택해주세요."
	fetchQueryValue = "1"
)

// weatherQuery is the query string accepted by HandleWeather.
type weatherQuery struct {
	City string `validate:"required"`
}

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Clock          func() time.Time
	Logger         *zap.SugaredLogger
	// Limiter gates page fetches. Nil lets every fetch through.
	Limiter func(*http.Request) bool

	validate *validator.Validate
}

func NewWeatherHandler(svc ...service.WeatherServiceInterface) *WeatherHandler {
	var weatherService service.WeatherServiceInterface
	if len(svc) > 0 && svc[0] != nil {
		weatherService = svc[0]
	} else {
		weatherService = service.NewWeatherService()
	}
	return &WeatherHandler{
		WeatherService: weatherService,
		Clock:          service.ProviderClock(config.GetKMALocation()),
		Logger:         config.GetLogger(),
		validate:       validator.New(),
	}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger().Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) logger() *zap.SugaredLogger {
	if h.Logger == nil {
		return config.GetLogger()
	}
	return h.Logger
}

func (h *WeatherHandler) validation() *validator.Validate {
	if h.validate == nil {
		h.validate = validator.New()
	}
	return h.validate
}

func (h *WeatherHandler) allow(r *http.Request) bool {
	return h.Limiter == nil || h.Limiter(r)
}

// newController starts one page worth of widget state. Each request gets its
// own, so requests never share display state.
func (h *WeatherHandler) newController(r *http.Request) *widget.Controller {
	logger := h.logger().With("request_id", middleware.RequestIDFromContext(r.Context()))
	return widget.New(h.WeatherService, h.Clock, logger)
}

// fetch runs the widget flow. The request context only carries values here;
// the provider call itself has no deadline and is not cancelled.
func fetch(r *http.Request, c *widget.Controller) error {
	return c.Fetch(context.WithoutCancel(r.Context()))
}

// HandleWeather serves the fetch flow as JSON: GET /weather?city=수원시
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errMsg := msgNotAllowed
		w.Header().Set("Allow", http.MethodGet)
		h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
		return
	}

	query := weatherQuery{City: r.URL.Query().Get("city")}
	if err := h.validation().Struct(query); err != nil {
		errMsg := msgMissingCity
		h.writeJSONResponse(w, http.StatusBadRequest, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
		return
	}

	c := h.newController(r)
	c.SelectCity(query.City)
	if err := fetch(r, c); err != nil {
		errMsg := msgFetchFailed
		h.writeJSONResponse(w, http.StatusInternalServerError, model.Response{
			Data:    c.View(),
			Error:   &errMsg,
			Message: "Error",
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    c.View(),
		Message: "Success",
	})
}

// HandleCities lists the selectable cities with their grid cells.
func (h *WeatherHandler) HandleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errMsg := msgNotAllowed
		w.Header().Set("Allow", http.MethodGet)
		h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    grid.Cities(),
		Message: "Success",
	})
}

// indexPage is what the index template renders.
type indexPage struct {
	Cities   []grid.City
	Selected string
	Notice   string
	View     model.ViewModel
}

// HandleIndex renders the widget page. ?city= selects a city and &fetch=1
// presses the fetch button.
func (h *WeatherHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, msgNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	c := h.newController(r)
	if city := q.Get("city"); city != "" {
		if _, err := grid.Lookup(city); err == nil {
			c.SelectCity(city)
		}
	}

	page := indexPage{Cities: grid.Cities(), Selected: c.City()}
	if q.Get("fetch") == fetchQueryValue {
		switch {
		case c.City() == "":
			page.Notice = msgSelectCity
		case !h.allow(r):
			h.logger().Warnw("page fetch rate limited",
				"city", c.City(), "request_id", middleware.RequestIDFromContext(r.Context()))
			c.ShowError()
		default:
			_ = fetch(r, c)
		}
	}
	page.View = c.View()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTemplate.Execute(w, page); err != nil {
		h.logger().Errorw("could not render index", "error", err)
	}
}
