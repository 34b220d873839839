package core

import "errors"

// ErrItemNotFound is returned by item repositories for missing and foreign items alike.
var ErrItemNotFound = errors.New("item not found")
