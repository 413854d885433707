package repository

import (
	"fmt"
	"net/http"
	"strings"
)

// Transport performs the outbound request. It is the strategy the repository
// sends every KMA call through.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	TransportDirect = "direct"
	TransportProxy  = "proxy"
)

// DirectTransport calls the API host directly.
type DirectTransport struct {
	Client *http.Client
}

func (t DirectTransport) Do(req *http.Request) (*http.Response, error) {
	return clientOrDefault(t.Client).Do(req)
}

// ProxiedTransport relays the call through a CORS-style proxy that takes the
// full target URL as its path, e.g. https://cors-anywhere.herokuapp.com/<url>.
// It is opt-in only; nothing falls back to it automatically.
type ProxiedTransport struct {
	Client   *http.Client
	ProxyURL string
}

func (t ProxiedTransport) Do(req *http.Request) (*http.Response, error) {
	if t.ProxyURL == "" {
		return nil, fmt.Errorf("proxy transport: proxy url not configured")
	}
	target := strings.TrimSuffix(t.ProxyURL, "/") + "/" + req.URL.String()

	proxied, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
	if err != nil {
		return nil, err
	}
	proxied.Header = req.Header.Clone()
	// cors-anywhere rejects requests that carry neither Origin nor X-Requested-With.
	proxied.Header.Set("X-Requested-With", "XMLHttpRequest")
	return clientOrDefault(t.Client).Do(proxied)
}

// NewTransport picks a strategy by name. Unknown names are an error rather
// than a silent default.
func NewTransport(kind, proxyURL string, client *http.Client) (Transport, error) {
	switch kind {
	case "", TransportDirect:
		return DirectTransport{Client: client}, nil
	case TransportProxy:
		return ProxiedTransport{Client: client, ProxyURL: proxyURL}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
