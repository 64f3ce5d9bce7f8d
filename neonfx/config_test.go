package neonfx

import (
	"strings"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/noxx-digital/neonhttp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func testLoadConfigFull(t *testing.T) {
	const yaml = `
http:
  chunkSize: 256
  bodyMode: c+
  protocol: "1.0"
  maxBodySize: 4096
  decodeRequestBody: true
  compressLevel: 9
  statusCodes:
    599: Network Timeout
`

	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	cfg, err := LoadConfig(newTestViper(t, yaml), "")
	require.NoError(err)
	require.NotNil(cfg)

	assert.Equal(256, cfg.ChunkSize)
	assert.Equal(neonhttp.ModeCPlus, cfg.BodyMode)
	assert.Equal("1.0", cfg.Protocol)
	assert.Equal(4096, cfg.MaxBodySize)
	assert.True(cfg.DecodeRequestBody)
	assert.Equal(9, cfg.CompressLevel)

	require.NotNil(cfg.Registry)
	phrase, ok := cfg.Registry.Phrase(599)
	assert.True(ok)
	assert.Equal("Network Timeout", phrase)
	assert.True(cfg.Registry.Has(neonhttp.StatusOK))
}

func testLoadConfigMissingKey(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	cfg, err := LoadConfig(newTestViper(t, "other: 1\n"), "neon")
	require.NoError(err)
	require.NotNil(cfg)
	assert.Zero(cfg.ChunkSize)
	assert.Empty(cfg.BodyMode)
	assert.NotNil(cfg.Registry)
}

func testLoadConfigBadMode(t *testing.T) {
	const yaml = `
http:
  bodyMode: rw
`

	cfg, err := LoadConfig(newTestViper(t, yaml), DefaultConfigKey)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func testLoadConfigReadOnlyMode(t *testing.T) {
	const yaml = `
http:
  bodyMode: r
`

	cfg, err := LoadConfig(newTestViper(t, yaml), DefaultConfigKey)
	assert.ErrorIs(t, err, neonhttp.ErrArgument)
	assert.Nil(t, cfg)
}

func testLoadConfigDuplicateStatus(t *testing.T) {
	const yaml = `
http:
  statusCodes:
    200: Fine
`

	cfg, err := LoadConfig(newTestViper(t, yaml), DefaultConfigKey)
	assert.ErrorIs(t, err, neonhttp.ErrArgument)
	assert.Nil(t, cfg)
}

func testLoadConfigNilViper(t *testing.T) {
	cfg, err := LoadConfig(nil, "")
	assert.ErrorIs(t, err, ErrNilViper)
	assert.Nil(t, cfg)
}

func testLoadConfigOptions(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		optionCalled bool
		option       = func(dc *mapstructure.DecoderConfig) {
			optionCalled = true
			assert.NotNil(dc.DecodeHook)
		}
	)

	_, err := LoadConfig(newTestViper(t, "http:\n  chunkSize: 1\n"), "", option)
	require.NoError(err)
	assert.True(optionCalled)
}

func TestLoadConfig(t *testing.T) {
	t.Run("Full", testLoadConfigFull)
	t.Run("MissingKey", testLoadConfigMissingKey)
	t.Run("BadMode", testLoadConfigBadMode)
	t.Run("ReadOnlyMode", testLoadConfigReadOnlyMode)
	t.Run("DuplicateStatus", testLoadConfigDuplicateStatus)
	t.Run("NilViper", testLoadConfigNilViper)
	t.Run("Options", testLoadConfigOptions)
}

func TestTextUnmarshalerHookFunc(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		result struct {
			Mode neonhttp.Mode
		}
	)

	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: TextUnmarshalerHookFunc,
		Result:     &result,
	})
	require.NoError(err)
	require.NoError(d.Decode(map[string]interface{}{"mode": "a+"}))
	assert.Equal(neonhttp.ModeAPlus, result.Mode)

	assert.Error(d.Decode(map[string]interface{}{"mode": "z"}))
}
