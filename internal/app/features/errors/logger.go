// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure and answers the request with a
// friendly page (or a short text body for HTMX requests). Handlers call it
// and return.
//
//	h.ErrLog.LogServerError(w, r, "list tasks failed", err, "Unable to load tasks.", "/dashboard")
type ErrorLogger struct {
	log    *zap.Logger
	render renderFunc
}

// NewErrorLogger creates an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger, render: renderPage}
}

func requestFields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// LogServerError logs at Error and renders a 500 page with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg, requestFields(r, err)...)
	e.render(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs at Warn and renders a 400 page with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg, requestFields(r, err)...)
	e.render(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL)
}

// LogForbidden logs at Warn and renders a 403 page with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg, requestFields(r, err)...)
	e.render(w, r, http.StatusForbidden, "Access denied", userMsg, backURL)
}

// LogNotFound logs at Info and renders a 404 page with userMsg.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Info(logMsg, requestFields(r, err)...)
	e.render(w, r, http.StatusNotFound, "Not found", userMsg, backURL)
}

// HTMXLogServerError logs at Error and writes userMsg as plain text, for
// requests that swap a fragment in place.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg, requestFields(r, err)...)
	http.Error(w, userMsg, http.StatusInternalServerError)
}

// HTMXLogBadRequest logs at Warn and writes userMsg as plain text.
func (e *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Warn(logMsg, requestFields(r, err)...)
	http.Error(w, userMsg, http.StatusBadRequest)
}
