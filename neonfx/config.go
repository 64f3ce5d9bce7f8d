package neonfx

import (
	"encoding"
	"errors"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/noxx-digital/neonhttp"
	"github.com/spf13/viper"
)

// DefaultConfigKey is the viper key holding the neonhttp configuration
// when no other key is given.
const DefaultConfigKey = "http"

var (
	// ErrNilViper is returned when the viper instance is nil.
	ErrNilViper = errors.New("the viper instance cannot be nil")

	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// TextUnmarshalerHookFunc is a mapstructure.DecodeHookFunc that decodes
// strings into types implementing encoding.TextUnmarshaler through a
// pointer receiver, such as neonhttp.Mode.
//
// src is returned unchanged when no conversion applies.
func TextUnmarshalerHookFunc(_, to reflect.Type, src interface{}) (interface{}, error) {
	text, ok := src.(string)
	if !ok || to.Kind() == reflect.Ptr || !reflect.PtrTo(to).Implements(textUnmarshalerType) {
		return src, nil
	}
	ptr := reflect.New(to)
	err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
	return ptr.Elem().Interface(), err
}

// DecodeHooks sets the decode hooks needed by neonhttp.Config on top of
// the ones viper uses by default.
func DecodeHooks(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		TextUnmarshalerHookFunc,
	)
}

// LoadConfig unmarshals the neonhttp configuration found under key.
//
// DefaultConfigKey is used when key is empty. A missing key yields the
// zero Config, which uses the defaults. The returned config is validated
// and carries a status registry built from its StatusCodes.
func LoadConfig(v *viper.Viper, key string, o ...viper.DecoderConfigOption) (*neonhttp.Config, error) {
	if v == nil {
		return nil, ErrNilViper
	}
	if len(key) == 0 {
		key = DefaultConfigKey
	}

	cfg := new(neonhttp.Config)
	opts := append([]viper.DecoderConfigOption{DecodeHooks}, o...)
	if err := v.UnmarshalKey(key, cfg, opts...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry, err := cfg.NewRegistry()
	if err != nil {
		return nil, err
	}
	cfg.Registry = registry
	return cfg, nil
}
