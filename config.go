package neonhttp

import (
	"errors"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

// Logger is used for logging formatted messages.
type Logger interface {
	// Printf must have the same semantics as log.Printf.
	Printf(format string, args ...any)
}

var defaultLogger = Logger(log.New(os.Stderr, "", log.LstdFlags))

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger returns a Logger writing to l at info level.
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l zapLogger) Printf(format string, args ...any) {
	l.s.Infof(format, args...)
}

// ErrBodyTooLarge is returned when a request body exceeds Config.MaxBodySize.
var ErrBodyTooLarge = errors.New("body size exceeds the given limit")

// Config controls how messages are built.
//
// The zero value is usable: every field falls back to a default.
// Config may be shared by concurrently handled messages, but it must
// not be modified while in use.
type Config struct {
	// ChunkSize bounds the size of single reads and writes when request
	// bodies are copied into a stream and when bodies are sent.
	//
	// DefaultChunkSize is used if not set.
	ChunkSize int `mapstructure:"chunkSize"`

	// BodyMode is the mode of request body streams.
	//
	// w+ is used if not set. The mode must be writable, since the body
	// is copied into the stream.
	BodyMode Mode `mapstructure:"bodyMode"`

	// Protocol is the protocol version of responses and of requests
	// whose context reports none.
	//
	// "1.1" is used if not set.
	Protocol string `mapstructure:"protocol"`

	// MaxBodySize is the maximum request body size in bytes.
	//
	// The body size is unlimited if not set.
	MaxBodySize int `mapstructure:"maxBodySize"`

	// DecodeRequestBody enables decoding of gzip, deflate, br and zstd
	// encoded request bodies.
	DecodeRequestBody bool `mapstructure:"decodeRequestBody"`

	// CompressLevel is the level used by Response.CompressBody.
	//
	// CompressDefaultCompression is used if not set.
	CompressLevel int `mapstructure:"compressLevel"`

	// StatusCodes are registered on top of the standard status codes
	// by NewRegistry.
	StatusCodes map[int]string `mapstructure:"statusCodes"`

	// Registry is shared by all responses built with this config.
	//
	// Responses get their own registry from NewRegistry if not set.
	Registry *StatusRegistry `mapstructure:"-"`

	// Logger is used for logging failures which aren't returned
	// to the caller.
	//
	// The standard logger writing to stderr is used if not set.
	Logger Logger `mapstructure:"-"`
}

var defaultConfig Config

// DefaultConfig returns the config used by NewRequest and NewResponse.
func DefaultConfig() *Config {
	return &defaultConfig
}

// Validate checks the config fields.
func (c *Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: negative chunk size %d", ErrArgument, c.ChunkSize)
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("%w: negative max body size %d", ErrArgument, c.MaxBodySize)
	}
	if len(c.BodyMode) > 0 {
		if _, err := ParseMode(string(c.BodyMode)); err != nil {
			return err
		}
		if !c.BodyMode.Writable() {
			return fmt.Errorf("%w: body mode %q isn't writable", ErrArgument, string(c.BodyMode))
		}
		if !c.BodyMode.Readable() {
			return fmt.Errorf("%w: body mode %q isn't readable", ErrArgument, string(c.BodyMode))
		}
	}
	return nil
}

// NewRegistry returns a registry with the standard status codes and
// the codes from StatusCodes.
func (c *Config) NewRegistry() (*StatusRegistry, error) {
	r := NewStatusRegistry()
	for code, phrase := range c.StatusCodes {
		if err := r.Register(code, phrase); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (c *Config) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}

func (c *Config) bodyMode() Mode {
	if len(c.BodyMode) > 0 {
		return c.BodyMode
	}
	return defaultBodyMode
}

func (c *Config) protocol() string {
	if p := trimProtocol(c.Protocol); len(p) > 0 {
		return p
	}
	return defaultProtocol
}

func (c *Config) compressLevel() int {
	if c.CompressLevel != 0 {
		return c.CompressLevel
	}
	return CompressDefaultCompression
}

func (c *Config) registry() (*StatusRegistry, error) {
	if c.Registry != nil {
		return c.Registry, nil
	}
	return c.NewRegistry()
}

// LoggerOrDefault returns Logger, or the standard logger writing to
// stderr if Logger isn't set.
func (c *Config) LoggerOrDefault() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger
}
