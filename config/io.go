package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
)

// Directory Layout
//   $dir/config.json - tracer and server settings

func (c *Config) Load() error {
	if _, err := os.Stat(c.configPath()); os.IsNotExist(err) {
		// keep defaults
		return nil
	}
	js, err := ioutil.ReadFile(c.configPath())
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := json.Unmarshal(js, c); err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}
	return nil
}

func (c *Config) Save() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.dir, os.ModePerm); err != nil {
			return errors.Wrap(err, "failed to create config dir")
		}
	}

	js, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := ioutil.WriteFile(c.configPath(), js, os.ModePerm^0111); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

func (c *Config) configPath() string {
	return path.Join(c.dir, "config.json")
}
