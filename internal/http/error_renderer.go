package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	errs "github.com/target/itemvault/internal/errors"
	obserrors "github.com/target/itemvault/internal/observability/errors"
)

// ErrorOpts groups what writeServiceError needs to render an unexpected error.
type ErrorOpts struct {
	W      http.ResponseWriter
	R      *http.Request
	Err    error
	Op     string // e.g. "create item"; used in the 500 message and the log line
	Logger *slog.Logger
}

// writeAppError renders e with the status its code maps to.
func writeAppError(w http.ResponseWriter, e *errs.AppError) {
	WriteError(w, ErrorParams{
		Code:    e.Code.HTTPStatus(),
		ErrCode: string(e.Code),
		Err:     errors.New(e.Message),
	})
}

// writeServiceError renders AppErrors with their own status and message. Any
// other error, and any internal AppError, becomes a 500 whose body names only
// the operation; the cause is logged.
func writeServiceError(opts ErrorOpts) {
	var appErr *errs.AppError
	if code := errs.GetCode(opts.Err); code != "" && code != errs.ErrCodeInternal && errors.As(opts.Err, &appErr) {
		writeAppError(opts.W, appErr)
		return
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(opts.R.Context(), opts.Op+" failed",
		"error", opts.Err,
		"error_type", obserrors.Classify(opts.Err),
		"method", opts.R.Method,
		"path", opts.R.URL.Path,
	)
	writeAppError(opts.W, errs.Internal(opts.Op+" failed"))
}
