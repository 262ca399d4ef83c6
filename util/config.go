package util

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ImportConfig holds the import-run options loaded from a YAML file.
type ImportConfig struct {
	SiteID            int    `yaml:"site-id"`
	SiteName          string `yaml:"site-name"`
	HeroName          string `yaml:"hero-name"`
	QueueSize         int    `yaml:"queue-size"`
	QueueTimeoutSec   int    `yaml:"queue-timeout-sec"`
	CommitEachHand    bool   `yaml:"commit-each-hand"`
	CommitBatchSize   int    `yaml:"commit-batch-size"`
	UseDateInHudCache bool   `yaml:"use-date-in-hudcache"`
	HudDays           int    `yaml:"hud-days"`
	HeroHudDays       int    `yaml:"hero-hud-days"`
	ExtractionWorkers int    `yaml:"extraction-workers"`
	RedisChannel      string `yaml:"redis-channel"`
	RestAddr          string `yaml:"rest-addr"`
}

// DefaultImportConfig mirrors the zero-configuration behavior: one site,
// per-hand commits, date-bucketed hud cache.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SiteID:            1,
		SiteName:          "Everleaf",
		QueueSize:         50,
		QueueTimeoutSec:   10,
		CommitEachHand:    true,
		CommitBatchSize:   50,
		UseDateInHudCache: true,
		HudDays:           30,
		HeroHudDays:       90,
		ExtractionWorkers: 2,
		RedisChannel:      "tracker.hand-imported",
		RestAddr:          ":8080",
	}
}

func ParseImportConfig(configFile string) (ImportConfig, error) {
	data := DefaultImportConfig()
	bytes, err := ioutil.ReadFile(configFile)
	if err != nil {
		return data, errors.Wrap(err, fmt.Sprintf("Error reading import config file [%s]", configFile))
	}
	err = yaml.Unmarshal(bytes, &data)
	if err != nil {
		return data, errors.Wrap(err, fmt.Sprintf("Error parsing import config YAML file [%s]", configFile))
	}
	return data, nil
}
