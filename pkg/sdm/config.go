package sdm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config defines the command's configuration.
type Config struct {
	Model    string         `json:"model,omitempty"`
	Seed     int64          `json:"seed"`
	Sampling SamplingConfig `json:"sampling"`
	Training TrainingConfig `json:"training"`
}

// SamplingConfig holds the stratified sampling settings.
type SamplingConfig struct {
	Size int `json:"size"` // cells drawn per class
}

// TrainingConfig encloses the boosted tree settings.
type TrainingConfig struct {
	Predictors   []string `json:"predictors"`
	LearningRate float64  `json:"learningRate"`
	Trees        int      `json:"trees"`
	Depth        int      `json:"depth"`
	BagFraction  float64  `json:"bagFraction"`
	Split        float64  `json:"split"` // training fraction of the table
}

// ReadConfig reads the config from a json or toml file and fills in
// the default hyperparameters for unset values.
func ReadConfig(file string) (*Config, error) {
	is, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("readConfig %s: %v", file, err)
	}
	defer is.Close()
	var config Config
	if strings.HasSuffix(file, ".toml") {
		if _, err := toml.DecodeReader(is, &config); err != nil {
			return nil, fmt.Errorf("readConfig %s: %v", file, err)
		}
		config.setDefaults()
		return &config, nil
	}
	if err := json.NewDecoder(is).Decode(&config); err != nil {
		return nil, fmt.Errorf("readConfig %s: %v", file, err)
	}
	config.setDefaults()
	return &config, nil
}

func (c *Config) setDefaults() {
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Sampling.Size == 0 {
		c.Sampling.Size = 1000
	}
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = 0.01
	}
	if c.Training.Trees == 0 {
		c.Training.Trees = 500
	}
	if c.Training.Depth == 0 {
		c.Training.Depth = 3
	}
	if c.Training.BagFraction == 0 {
		c.Training.BagFraction = 0.75
	}
	if c.Training.Split == 0 {
		c.Training.Split = 0.7
	}
}

// Overwrite overwrites the appropriate variables in the config file
// with the given values.  Values only overwrite the variables if they
// are not go's default zero value.
func (c *Config) Overwrite(model string, seed int64) {
	if model != "" {
		c.Model = model
	}
	if seed != 0 {
		c.Seed = seed
	}
}
