package backend

import (
	"net/http"
	"net/http/httputil"
	"net/url"
)

// Backend represents a single configured backend server. Identity and the
// reverse proxy are fixed at startup; health status lives in the Registry.
type Backend struct {
	url   *url.URL
	proxy *httputil.ReverseProxy
}

// New creates a Backend for the given URL. The reverse proxy answers
// 502 Bad Gateway on any forwarding error, including context deadline
// expiry on the proxied request.
func New(u *url.URL) *Backend {
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusBadGateway)
	}

	return &Backend{
		url:   u,
		proxy: proxy,
	}
}

// URL returns the backend server URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// ReverseProxy returns the HTTP reverse proxy for this backend.
func (b *Backend) ReverseProxy() *httputil.ReverseProxy {
	return b.proxy
}
