package cache

import "errors"

// ErrNetwork marks failures talking to a remote cache backend.
var ErrNetwork = errors.New("network error")
