package config

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuuki0xff/ctrace/info"
)

func TestConfig_defaults(t *testing.T) {
	c := NewConfig("")
	assert.Equal(t, info.DefaultChunkSize, c.Tracer.ChunkSize)
	assert.Equal(t, uint64(info.DefaultAllocWarnThreshold), c.Tracer.AllocWarnThreshold)
	assert.Equal(t, info.DefaultMaxSpeedscopeEvents, c.Tracer.MaxSpeedscopeEvents)
	assert.Equal(t, info.DefaultServeAddr, c.Server.Addr)
}

func TestConfig_loadMissingFileKeepsDefaults(t *testing.T) {
	c := NewConfig("/nonexistent/.ctrace")
	assert.NoError(t, c.Load())
	assert.Equal(t, info.DefaultChunkSize, c.Tracer.ChunkSize)
}

func TestConfig_saveLoadRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", ".ctrace_config")
	assert.NoError(t, err)
	defer os.RemoveAll(dir) // nolint: errcheck

	c := NewConfig(dir)
	c.Tracer.ChunkSize = 4096
	c.Server.Addr = "localhost:9999"
	assert.NoError(t, c.Save())

	_, err = os.Stat(path.Join(dir, "config.json"))
	assert.NoError(t, err)

	c2 := NewConfig(dir)
	assert.NoError(t, c2.Load())
	assert.Equal(t, 4096, c2.Tracer.ChunkSize)
	assert.Equal(t, "localhost:9999", c2.Server.Addr)
}

func TestConfig_saveIfWant(t *testing.T) {
	dir, err := ioutil.TempDir("", ".ctrace_config")
	assert.NoError(t, err)
	defer os.RemoveAll(dir) // nolint: errcheck

	c := NewConfig(dir)
	assert.NoError(t, c.SaveIfWant())
	_, err = os.Stat(path.Join(dir, "config.json"))
	assert.True(t, os.IsNotExist(err), "SaveIfWant without WantSave must not write")

	c.WantSave()
	assert.NoError(t, c.SaveIfWant())
	_, err = os.Stat(path.Join(dir, "config.json"))
	assert.NoError(t, err)
}
