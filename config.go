package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"panda.com/mp4iframe/core"
)

// Config of one run, from an optional yaml file overridden by flags.
type Config struct {
	LogLevel      string   `yaml:"log_level"`
	Handlers      []string `yaml:"handlers"`
	Workers       int      `yaml:"workers"`
	SizeTolerance float64  `yaml:"size_tolerance"`
	Mmap          bool     `yaml:"mmap"`
	Annotate      bool     `yaml:"annotate"`
}

func NewConfig() *Config {
	opts := core.DefaultOptions()
	return &Config{
		LogLevel:      "info",
		Workers:       opts.Workers,
		SizeTolerance: opts.SizeTolerance,
		Annotate:      opts.Annotate,
	}
}

// Load merges the yaml file at path over v; fields missing from the file keep their value.
func (v *Config) Load(path string) (err error) {
	var b []byte
	if b, err = os.ReadFile(path); err != nil {
		return errors.Wrapf(err, "read config %v", path)
	}
	if err = yaml.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "parse config %v", path)
	}
	return
}

func (v *Config) Validate() error {
	if _, err := log.ParseLevel(v.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if v.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %v", v.Workers)
	}
	if v.SizeTolerance < 0 {
		return errors.Errorf("size_tolerance must not be negative, got %v", v.SizeTolerance)
	}
	for _, h := range v.Handlers {
		if len(h) != 4 {
			return errors.Errorf("handler %q is not a four character code", h)
		}
	}
	return nil
}

func (v *Config) Options() core.Options {
	return core.Options{
		Handlers:      v.Handlers,
		Workers:       v.Workers,
		SizeTolerance: v.SizeTolerance,
		Annotate:      v.Annotate,
	}
}

// handlerList is a flag accepting repeated or comma separated handler types.
type handlerList []string

func (v *handlerList) String() string {
	return strings.Join(*v, ",")
}

func (v *handlerList) Set(s string) error {
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			*v = append(*v, h)
		}
	}
	return nil
}
