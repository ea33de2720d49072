package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger of the HTTP layer. Nop until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
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

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("OFFLOADD_HTTP_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
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

// logOp logs the start of an operation at info level.
func logOp(r *http.Request, lvl LogLevel, op, component string) {
	if lvl < LevelInfo {
		return
	}
	z := zlog.Info().Str("path", r.URL.Path).Str("op", op)
	if component != "" {
		z = z.Str("component", component)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(op + " start")
}

// logOpEnd logs the outcome. Failures are logged from LevelError up.
func logOpEnd(r *http.Request, lvl LogLevel, op string, status int, start time.Time, err error) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	z := zlog.Info()
	if err != nil {
		z = zlog.Error().Err(err)
	}
	z = z.Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(op + " end")
}
