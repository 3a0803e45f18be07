package config

import (
	"time"
)

type (
	NETWriteBufferSize struct {
		Default int `mapstructure:"default" validate:"gt=0"`
		Maximal int `mapstructure:"maximal" validate:"gtefield=Default"`
	}
)

type (
	NET struct {
		// Host is the interface the listener binds to. Port is supplied separately
		// to App.Listen.
		Host string `mapstructure:"host" test:"nullable"`
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int `mapstructure:"read_buffer_size" validate:"gt=0"`
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration `mapstructure:"accept_loop_interrupt_period" validate:"gt=0"`
		// WriteBufferSize is the initial capacity of the buffer holding the response status
		// line, headers and chunk frames before they are written into the connection. Body
		// fragments bigger than Maximal bypass the buffer.
		WriteBufferSize NETWriteBufferSize `mapstructure:"write_buffer_size"`
	}

	Headers struct {
		// MaxSectionSize limits the request line together with all the header lines. Requests
		// exceeding it are rejected with 431 Request Header Fields Too Large.
		MaxSectionSize int `mapstructure:"max_section_size" validate:"gt=0"`
		// Default headers are headers to be included into every response implicitly, unless
		// explicitly overridden. Keys are case-insensitive.
		Default map[string]string `mapstructure:"default" test:"nullable"`
	}

	Log struct {
		// Level is one of debug, info, warn or error.
		Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	}

	Metrics struct {
		// Addr is where the Prometheus exporter listens. Empty disables it.
		Addr string `mapstructure:"addr" validate:"omitempty,hostname_port" test:"nullable"`
	}
)

// Config holds settings used across various parts of flint, mainly restrictions, limitations
// and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	NET     NET     `mapstructure:"net"`
	Headers Headers `mapstructure:"headers"`
	Log     Log     `mapstructure:"log"`
	Metrics Metrics `mapstructure:"metrics"`
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			Host:                      "0.0.0.0",
			ReadBufferSize:            2 * 1024,
			ReadTimeout:               90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			WriteBufferSize: NETWriteBufferSize{
				Default: 2 * 1024,
				Maximal: 64 * 1024,
			},
		},
		Headers: Headers{
			MaxSectionSize: 64 * 1024,
			Default: map[string]string{
				"server": "flint",
			},
		},
		Log: Log{
			Level: "info",
		},
	}
}
