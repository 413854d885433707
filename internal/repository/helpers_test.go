package repository

import (
	"net/http"
	"time"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) *http.Response

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

// transportFunc adapts a function to Transport.
type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

const testServiceKey = "raw+key/abc=="

func newTestRepository(apiURL string, transport Transport, cache redisClient) *weatherRepository {
	return &weatherRepository{
		redisClient: cache,
		transport:   transport,
		apiURL:      apiURL,
		serviceKey:  testServiceKey,
		pageNo:      1,
		numOfRows:   1000,
		dataType:    "JSON",
		expiration:  time.Minute,
	}
}
