package app_setting

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ServerAppSetting customizes the API server at startup.
type ServerAppSetting struct {
	// Address the gin router listens on.
	LISTEN_ADDR string `yaml:"LISTEN_ADDR"`
	// Serve the current round from redis in front of the database. Needs
	// REDIS_HOST and friends in the environment.
	ENABLE_ROUND_CACHE bool `yaml:"ENABLE_ROUND_CACHE"`
	// Time to live of the cached round in seconds.
	ROUND_CACHE_TTL_SECOND int64 `yaml:"ROUND_CACHE_TTL_SECOND"`
	// Publish served feeds on the audit bus and report them to Datadog.
	ENABLE_FEED_REPORTER bool `yaml:"ENABLE_FEED_REPORTER"`
	// DogStatsD address used by the feed reporter.
	STATSD_ADDR string `yaml:"STATSD_ADDR"`
	// Buffer of the in process audit bus.
	EVENT_BUS_BUFFER int64 `yaml:"EVENT_BUS_BUFFER"`
	// Start the Datadog tracer and profiler.
	ENABLE_TRACING bool `yaml:"ENABLE_TRACING"`
	// Create or update the tables on startup.
	AUTO_MIGRATE bool `yaml:"AUTO_MIGRATE"`
}

const (
	defaultListenAddr = ":5010"
	defaultStatsdAddr = "127.0.0.1:8125"
)

// ParseServerAppSetting reads the YAML setting at path, filling defaults for
// missing values.
func ParseServerAppSetting(path string) (ServerAppSetting, error) {
	c := ServerAppSetting{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "fail to read app setting %s", path)
	}
	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrapf(err, "fail to parse app setting %s", path)
	}
	if c.LISTEN_ADDR == "" {
		c.LISTEN_ADDR = defaultListenAddr
	}
	if c.STATSD_ADDR == "" {
		c.STATSD_ADDR = defaultStatsdAddr
	}
	return c, nil
}
