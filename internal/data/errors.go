package data

import (
	"fmt"

	errs "github.com/target/itemvault/internal/errors"
)

// mapErr wraps err with op, translating recognised Postgres failures into
// application errors first.
func mapErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errs.MapDBError(err))
}
