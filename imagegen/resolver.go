package imagegen

import (
	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

// KeySource supplies stored API keys to the resolver. Satisfied by
// config.Store.
type KeySource interface {
	APIKey(service string) (string, bool)
	LastUsedService() string
}

// Resolver picks the provider for a generation session and checks its
// credential before any network call is made.
//
// Precedence: an explicit request wins, then the remembered last-used
// service, then the free-tier default.
type Resolver struct {
	providers map[string]Provider
	keys      KeySource
	logger    *logging.Logger
}

// NewResolver creates a Resolver over the given providers.
func NewResolver(providers []Provider, keys KeySource, logger *logging.Logger) *Resolver {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Resolver{providers: byName, keys: keys, logger: logger.Named("resolver")}
}

// Resolve returns the provider for the requested service name and the API key
// to use with it. requested may be empty, in which case the last-used service
// (if still known) or the default is chosen.
//
// An unknown name is a ValidationError. A service that requires a key with no
// key configured is a ConfigError; both surface before any network traffic.
func (r *Resolver) Resolve(requested string) (Provider, string, error) {
	name, origin := r.pick(requested)

	p, ok := r.providers[name]
	if !ok {
		return nil, "", core.ErrUnknownService(name, ServiceNames())
	}

	key, _ := r.keys.APIKey(name)
	if p.RequiresAPIKey() && key == "" {
		return nil, "", core.ErrMissingAPIKey(name)
	}

	r.logger.Info("service resolved",
		zap.String("service", name),
		zap.String("origin", origin))
	return p, key, nil
}

// pick applies the precedence order and reports where the choice came from.
func (r *Resolver) pick(requested string) (name, origin string) {
	if requested != "" {
		return requested, "explicit"
	}
	if last := r.keys.LastUsedService(); last != "" && IsKnownService(last) {
		return last, "last-used"
	}
	return DefaultService, "default"
}
