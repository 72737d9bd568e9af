package health

import (
	"context"
	"errors"
)

// Component check names registered by the server.
const (
	CheckConfig = "config"
	CheckCache  = "cache"
	CheckStats  = "stats"
)

// ErrConfigNotLoaded is reported by ConfigCheck before a configuration exists.
var ErrConfigNotLoaded = errors.New("configuration not loaded")

// Pinger is implemented by backends reachable over the network, such as the
// redis stats recorder.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConfigCheck fails while loaded reports false.
func ConfigCheck(loaded func() bool) CheckFunc {
	return func(context.Context) error {
		if !loaded() {
			return ErrConfigNotLoaded
		}
		return nil
	}
}

// IntegrityCheck wraps a synchronous self-check such as the cache's
// accounting verification.
func IntegrityCheck(check func() error) CheckFunc {
	return func(context.Context) error {
		return check()
	}
}

// PingCheck reports whether p answers.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}
