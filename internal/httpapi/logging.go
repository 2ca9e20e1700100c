package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger of the HTTP layer. Nil disables logging.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetDefaultLogLevel sets the level used when a request carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestEvent returns a log event for a finished request, or nil when the
// request's level filters it out. Server errors log at LevelError, the rest
// at LevelInfo.
func requestEvent(r *http.Request, lvl LogLevel, status int) *zerolog.Event {
	if zlog == nil {
		return nil
	}
	var e *zerolog.Event
	switch {
	case status >= 500 && lvl >= LevelError:
		e = zlog.Error()
	case status < 500 && lvl >= LevelInfo:
		e = zlog.Info()
	default:
		return nil
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e.Str("path", r.URL.Path).Int("status", status)
}

// debugEvent returns a debug event when the request asked for one.
func debugEvent(r *http.Request, lvl LogLevel) *zerolog.Event {
	if zlog == nil || lvl < LevelDebug {
		return nil
	}
	e := zlog.Info()
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e.Str("path", r.URL.Path)
}
