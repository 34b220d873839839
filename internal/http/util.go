package httpx

import (
	"fmt"
	"net/http"
	"strconv"
)

// parseIntQuery returns the integer value of a query param, def when absent,
// or an error when present but not a non-negative integer.
func parseIntQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return i, nil
}

// ParseLimitOffset parses pagination params. A limit of 0 selects defLimit and
// values above maxLimit are clamped.
func ParseLimitOffset(r *http.Request, defLimit, maxLimit int) (int, int, error) {
	if maxLimit < 1 {
		maxLimit = 1
	}

	lim, err := parseIntQuery(r, "limit", defLimit)
	if err != nil {
		return 0, 0, err
	}
	off, err := parseIntQuery(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if lim == 0 {
		lim = defLimit
	}
	if lim > maxLimit {
		lim = maxLimit
	}
	return lim, off, nil
}
