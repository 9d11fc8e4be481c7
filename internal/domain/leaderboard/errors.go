package leaderboard

import "errors"

// ErrUnknownAttribute is returned by ParseAttribute for unsupported group keys.
var ErrUnknownAttribute = errors.New("unknown grouping attribute")
