// Package logger provides request-scoped logrus loggers.
package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKeyRequestLoggerType struct{}

var contextKeyRequestLogger = &contextKeyRequestLoggerType{}

const (
	requestIDLoggerKey = "requestID"
	userLoggerKey      = "userName"

	// RequestIDHeader echoes the request id back to the client.
	RequestIDHeader = "X-Request-ID"
)

// Init sets up the text formatter and level for all log statements.
// Unknown levels fall back to info.
func Init(level string) {
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	logrus.SetFormatter(customFormatter)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// Default returns a logger without a request ID.
func Default() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

// ContextWithLogger returns ctx with a logger carrying a new request ID, unless ctx already has one.
func ContextWithLogger(ctx context.Context) (context.Context, *logrus.Entry) {
	if ctx == nil {
		ctx = context.Background()
	} else if rlog := loggerFromContext(ctx); rlog != nil {
		return ctx, rlog
	}
	rlog := logrus.WithField(requestIDLoggerKey, uuid.New().String())
	return context.WithValue(ctx, contextKeyRequestLogger, rlog), rlog
}

// ContextWithUser adds the user name to the context logger.
func ContextWithUser(ctx context.Context, userName string) context.Context {
	ctx, rlog := ContextWithLogger(ctx)
	return context.WithValue(ctx, contextKeyRequestLogger, rlog.WithField(userLoggerKey, userName))
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if rlog := loggerFromContext(ctx); rlog != nil {
		return rlog
	}
	return Default()
}

// RequestIDFromContext returns the request id for the given context, or "".
func RequestIDFromContext(ctx context.Context) string {
	rlog := loggerFromContext(ctx)
	if rlog == nil {
		return ""
	}
	if s, ok := rlog.Data[requestIDLoggerKey].(string); ok {
		return s
	}
	return ""
}

func loggerFromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	rlog, ok := ctx.Value(contextKeyRequestLogger).(*logrus.Entry)
	if !ok {
		return nil
	}
	return rlog
}

// RequestLogger attaches a request logger to every request and logs its completion.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, rlog := ContextWithLogger(r.Context())
		w.Header().Set(RequestIDHeader, RequestIDFromContext(ctx))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		r = r.WithContext(ctx)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		rlog.WithFields(logrus.Fields{
			"method":   r.Method,
			"route":    route,
			"status":   status,
			"duration": time.Since(start).String(),
		}).Info("request completed")
	})
}
