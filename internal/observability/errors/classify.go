// Package errors derives low-cardinality labels from errors for log lines.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	apperrs "github.com/target/itemvault/internal/errors"
)

// Classify names the kind of failure behind err. Application errors report
// their code, Postgres errors their SQLSTATE, and everything else the type of
// the innermost wrapped error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	var appErr *apperrs.AppError
	if goerrors.As(err, &appErr) {
		return "app_" + string(appErr.Code)
	}
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return "pg_" + pgErr.Code
	}

	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	return typeLabel(err)
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
