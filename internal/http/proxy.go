package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// BackendProxyOptions groups parameters for NewBackendProxy.
type BackendProxyOptions struct {
	// Target is the backend origin, e.g. https://api.internal.example.com.
	Target *url.URL
	// Transport decorates outbound requests with credentials. Nil uses the
	// default transport (no decoration).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewBackendProxy returns a reverse proxy that forwards protected API traffic
// to the backend origin. Credential decoration happens in the transport, not
// here, so the proxy stays a pure path-and-host rewrite.
func NewBackendProxy(opts BackendProxyOptions) (http.Handler, error) {
	if opts.Target == nil {
		return nil, errors.New("proxy target is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(opts.Target)
			pr.SetXForwarded()
			// The inbound Host is the gateway's; the backend routes by its own.
			pr.Out.Host = opts.Target.Host
		},
		Transport: opts.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "backend proxy error",
				"error", err, "path", r.URL.Path, "method", r.Method)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "backend_unavailable",
				Err:     errors.New("backend request failed"),
			})
		},
	}
	return proxy, nil
}
