// Package log exposes the logger types accepted by the packrun SDK, any
// implementation of [Logger] can be set on the client config.
package log

import "github.com/slok/packrun/internal/log"

type Logger = log.Logger

type Kv = log.Kv

// Noop discards everything, it's the default logger of the client.
var Noop = log.Noop
