package allocator

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rhyrak/go-allocate/pkg/model"
)

type Configuration struct {
	InputPath         string `mapstructure:"input"`
	ExportFile        string `mapstructure:"export"`
	TemplateFile      string `mapstructure:"template"`
	Delimiter         string `mapstructure:"delimiter"`
	MaxPreferenceRank int    `mapstructure:"max-rank"`
	DeriveMaxRank     bool   `mapstructure:"derive-max-rank"`
	ServerAddress     string `mapstructure:"address"`
	DatabasePath      string `mapstructure:"database"`
	Verbose           bool   `mapstructure:"verbose"`
	JSONLogs          bool   `mapstructure:"json-logs"`
}

func NewDefaultConfiguration() *Configuration {
	return &Configuration{
		InputPath:         "./res/allocation.xlsx",
		ExportFile:        "course_allocations.csv",
		TemplateFile:      "course_allocation_template.xlsx",
		Delimiter:         ",",
		MaxPreferenceRank: model.MaxPreferenceRank,
		DeriveMaxRank:     false,
		ServerAddress:     ":3001",
		DatabasePath:      "db/allocations.db",
	}
}

// Validate reports the first invalid setting.
func (c *Configuration) Validate() error {
	if c.MaxPreferenceRank < 1 {
		return fmt.Errorf("max preference rank must be >= 1, got %d", c.MaxPreferenceRank)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.Delim() == '"' || c.Delim() == '\n' || c.Delim() == '\r' {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	if c.InputPath == "" {
		return errors.New("input path is empty")
	}
	return nil
}

func (c *Configuration) Delim() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Options derives the engine options from the configuration.
func (c *Configuration) Options() Options {
	return Options{
		MaxRank:       c.MaxPreferenceRank,
		DeriveMaxRank: c.DeriveMaxRank,
	}
}
