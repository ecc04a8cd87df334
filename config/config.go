package config

import (
	"github.com/yuuki0xff/ctrace/info"
)

// Config holds the CLI/server settings persisted under the config dir.
type Config struct {
	dir      string
	wantSave bool

	Tracer Tracer `json:"tracer"`
	Server Server `json:"server"`
}

// Tracer configures recording and export limits.
type Tracer struct {
	// ChunkSize is the chunk size in 32bit words.
	ChunkSize int `json:"chunk_size"`
	// AllocWarnThreshold is the per-scope byte count after which chunk
	// allocations warn.
	AllocWarnThreshold uint64 `json:"alloc_warn_threshold"`
	// MaxSpeedscopeEvents caps speedscope exports.
	MaxSpeedscopeEvents int `json:"max_speedscope_events"`
}

// Server configures the HTTP viewer.
type Server struct {
	Addr string `json:"addr"`
}

func NewConfig(dir string) *Config {
	if dir == "" {
		dir = info.DefaultConfigDir
	}
	return &Config{
		dir: dir,
		Tracer: Tracer{
			ChunkSize:           info.DefaultChunkSize,
			AllocWarnThreshold:  info.DefaultAllocWarnThreshold,
			MaxSpeedscopeEvents: info.DefaultMaxSpeedscopeEvents,
		},
		Server: Server{
			Addr: info.DefaultServeAddr,
		},
	}
}

func (c *Config) WantSave() {
	c.wantSave = true
}

func (c *Config) SaveIfWant() error {
	if c.wantSave {
		return c.Save()
	}
	return nil
}
