// Package kmatest provides a fake getUltraSrtNcst endpoint for tests.
package kmatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
)

// Item is one category/value pair of a fake observation.
type Item struct {
	Category string
	Value    string
}

// Envelope renders a getUltraSrtNcst JSON body. With a non-"00" code the body
// is omitted, the way data.go.kr answers NO_DATA.
func Envelope(resultCode string, items ...Item) []byte {
	header := map[string]string{"resultCode": resultCode, "resultMsg": resultMessage(resultCode)}
	response := map[string]any{"header": header}

	if resultCode == "00" {
		list := make([]map[string]any, 0, len(items))
		for _, it := range items {
			list = append(list, map[string]any{
				"baseDate":  "20261019",
				"baseTime":  "1400",
				"category":  it.Category,
				"nx":        60,
				"ny":        121,
				"obsrValue": it.Value,
			})
		}
		response["body"] = map[string]any{
			"dataType":   "JSON",
			"items":      map[string]any{"item": list},
			"pageNo":     1,
			"numOfRows":  1000,
			"totalCount": len(list),
		}
	}

	b, _ := json.Marshal(map[string]any{"response": response})
	return b
}

func resultMessage(code string) string {
	switch code {
	case "00":
		return "NORMAL_SERVICE"
	case "03":
		return "NO_DATA"
	case "30":
		return "SERVICE_KEY_IS_NOT_REGISTERED_ERROR"
	default:
		return "APPLICATION_ERROR"
	}
}

// Server is an httptest server that answers every request with Body and
// remembers the queries it saw.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	body    []byte
	queries []url.Values
	hits    atomic.Int64
}

// NewServer starts a fake endpoint answering with body.
func NewServer(body []byte) *Server {
	s := &Server{body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		b := s.body
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
		_, _ = w.Write(b)
	}))
	return s
}

// SetBody changes the answer for subsequent requests.
func (s *Server) SetBody(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

// Hits returns how many requests were served.
func (s *Server) Hits() int {
	return int(s.hits.Load())
}

// LastQuery returns the query of the most recent request, or nil.
func (s *Server) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

// RefusedURL returns a URL on a port that was just closed, so dialing it
// fails with connection refused.
func RefusedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

// Suwon is the fixture observation used across tests.
var Suwon = []Item{
	{Category: "T1H", Value: "15"},
	{Category: "REH", Value: "60"},
	{Category: "WSD", Value: "2.1"},
	{Category: "SKY", Value: "1"},
	{Category: "PTY", Value: "0"},
}
