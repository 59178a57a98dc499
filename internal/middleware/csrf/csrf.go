// Package csrf guards the endpoints that authenticate with the refresh cookie
// instead of a bearer header.
package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

type Config struct {
	// AllowedOrigins are scheme://host[:port] values, compared case-insensitively.
	AllowedOrigins []string
	// AllowSameOrigin also accepts requests whose origin matches the Host header.
	AllowSameOrigin bool
}

// OriginGuard rejects unsafe requests whose Origin (or Referer) is not
// allowed. Requests that carry neither header come from non-browser clients
// and pass.
func OriginGuard(cfg Config) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			origin := requestOrigin(req)
			if origin == "" {
				return next(c)
			}
			if _, ok := allowed[origin]; ok {
				return next(c)
			}
			if _, ok := allowed["*"]; ok {
				return next(c)
			}
			if cfg.AllowSameOrigin && origin == strings.ToLower(schemeOf(req)+"://"+req.Host) {
				return next(c)
			}

			logging.FromContext(req.Context()).Warn("csrf_rejected", "status", http.StatusForbidden, "reason", "origin not allowed", "origin", origin)
			return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
		}
	}
}

// requestOrigin returns the lower-cased scheme://host of the Origin header,
// falling back to the Referer.
func requestOrigin(r *http.Request) string {
	raw := r.Header.Get(echo.HeaderOrigin)
	if raw == "" {
		raw = r.Header.Get("Referer")
	}
	switch raw {
	case "":
		return ""
	case "null":
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
