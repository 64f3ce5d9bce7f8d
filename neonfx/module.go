// Package neonfx integrates neonhttp with go.uber.org/fx applications.
//
// The configuration is read from an externally supplied *viper.Viper
// component. An optional *zap.Logger component becomes the logger of
// every message built from it.
package neonfx

import (
	"net/http"

	"github.com/noxx-digital/neonhttp"
	"github.com/noxx-digital/neonhttp/neonhttpadaptor"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleName is the name of the fx module returned by Module.
const ModuleName = "neonhttp"

// ConfigIn is the set of dependencies required to build a neonhttp.Config.
type ConfigIn struct {
	fx.In

	// Viper is the required source of the configuration.
	Viper *viper.Viper

	// Options are applied to the unmarshal call after DecodeHooks.
	Options []viper.DecoderConfigOption `optional:"true"`

	// Logger is an optional zap logger. The standard logger writing to
	// stderr is used when it is missing.
	Logger *zap.Logger `optional:"true"`
}

// HandlerIn is the set of dependencies required to build an http.Handler.
type HandlerIn struct {
	fx.In

	Config  *neonhttp.Config
	Handler neonhttpadaptor.Handler
}

// Module provides a *neonhttp.Config unmarshaled from the given viper key,
// the *neonhttp.StatusRegistry shared by all responses and an http.Handler
// serving a neonhttpadaptor.Handler component.
//
// DefaultConfigKey is used when key is empty.
func Module(key string) fx.Option {
	return fx.Module(
		ModuleName,
		fx.Provide(
			func(in ConfigIn) (*neonhttp.Config, error) {
				cfg, err := LoadConfig(in.Viper, key, in.Options...)
				if err != nil {
					return nil, err
				}
				if in.Logger != nil {
					cfg.Logger = neonhttp.NewZapLogger(in.Logger.Named(ModuleName))
				}
				return cfg, nil
			},
			func(cfg *neonhttp.Config) *neonhttp.StatusRegistry {
				return cfg.Registry
			},
			func(in HandlerIn) http.Handler {
				return neonhttpadaptor.NewHandler(in.Config, in.Handler)
			},
		),
	)
}
