// Package config loads run settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/go-scripts/tcas/internal/report"
	"github.com/go-scripts/tcas/pkg/common"
)

const (
	configPathEnv = "TCAS_CONFIG"
	baseURLEnv    = "TCAS_BASE_URL"
	headlessEnv   = "TCAS_HEADLESS"
	logLevelEnv   = "TCAS_LOG_LEVEL"
	outputDirEnv  = "TCAS_OUTPUT_DIR"

	maxSheetName = 31
)

// Output formats understood by the CLI.
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Config holds every setting of a scraping run.
type Config struct {
	BaseURL     string                    `yaml:"baseUrl"`
	HrefPattern string                    `yaml:"hrefPattern"`
	Searches    []common.SearchTermConfig `yaml:"searches"`
	Pacing      PacingConfig              `yaml:"pacing"`
	Tuition     TuitionConfig             `yaml:"tuition"`
	Output      OutputConfig              `yaml:"output"`
	Browser     BrowserConfig             `yaml:"browser"`
	Log         LogConfig                 `yaml:"log"`
	// Limit caps the number of candidates resolved. Zero resolves all.
	Limit int `yaml:"limit"`
}

// PacingConfig sets the pauses between remote operations.
type PacingConfig struct {
	BetweenSearches time.Duration `yaml:"betweenSearches"`
	BetweenPages    time.Duration `yaml:"betweenPages"`
}

// TuitionConfig bounds plausible per-term tuition amounts in baht.
type TuitionConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// OutputConfig describes where and how reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Base    string   `yaml:"base"`
	Formats []string `yaml:"formats"`
}

// BrowserConfig configures the page source.
type BrowserConfig struct {
	Headless bool `yaml:"headless"`
	// Static fetches server-rendered HTML instead of driving Chrome.
	Static            bool          `yaml:"static"`
	UserAgent         string        `yaml:"userAgent"`
	Lang              string        `yaml:"lang"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`
	ActionTimeout     time.Duration `yaml:"actionTimeout"`
	SettleDelay       time.Duration `yaml:"settleDelay"`
}

// LogConfig sets the log level name (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:     "https://course.mytcas.com",
		HrefPattern: "/programs/",
		Searches: []common.SearchTermConfig{
			{
				Term:   "วิศวกรรม คอมพิวเตอร์",
				Intent: common.IntentGeneral,
				Sheet:  "💻 วิศวกรรมคอมพิวเตอร์",
			},
			{
				Term:   "วิศวกรรมปัญญาประดิษฐ์",
				Intent: common.IntentAI,
				Sheet:  "🤖 วิศวกรรมปัญญาประดิษฐ์",
			},
		},
		Pacing: PacingConfig{
			BetweenSearches: 2 * time.Second,
			BetweenPages:    1500 * time.Millisecond,
		},
		Tuition: TuitionConfig{Min: 3000, Max: 200000},
		Output: OutputConfig{
			Dir:     ".",
			Base:    "TCAS_วิศวกรรม_แยกประเภท",
			Formats: []string{FormatXLSX, FormatJSON},
		},
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Lang:              "th-TH",
			NavigationTimeout: 30 * time.Second,
			ActionTimeout:     10 * time.Second,
			SettleDelay:       3 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load starts from Default, applies the YAML file at path (or $TCAS_CONFIG when path is
// empty) and then environment overrides. A missing explicit file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if cfg, err = Parse(raw); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Keys absent from raw keep their default; a
// present list replaces the default list.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(baseURLEnv); v != "" {
		c.BaseURL = v
	}

	if v := os.Getenv(headlessEnv); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", headlessEnv, err)
		}
		c.Browser.Headless = headless
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}
	return nil
}

// Validate reports every problem found in c.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("baseUrl %q is not an absolute URL", c.BaseURL))
	}

	if len(c.Searches) == 0 {
		errs = append(errs, errors.New("at least one search term is required"))
	}
	terms := make(map[string]bool, len(c.Searches))
	// Excel sheet names are unique regardless of case.
	sheets := map[string]bool{strings.ToLower(report.CombinedSheet): true}
	for i, s := range c.Searches {
		term := strings.TrimSpace(s.Term)
		switch {
		case term == "":
			errs = append(errs, fmt.Errorf("searches[%d]: term is empty", i))
		case terms[term]:
			errs = append(errs, fmt.Errorf("searches[%d]: duplicate term %q", i, term))
		}
		terms[term] = true

		if !slices.Contains([]common.Intent{common.IntentNone, common.IntentGeneral, common.IntentAI}, s.Intent) {
			errs = append(errs, fmt.Errorf("searches[%d]: unknown intent %q", i, s.Intent))
		}
		sheet := report.SheetName(s)
		if err := checkSheetName(sheet); err != nil {
			errs = append(errs, fmt.Errorf("searches[%d]: %w", i, err))
		}
		if key := strings.ToLower(sheet); sheets[key] {
			errs = append(errs, fmt.Errorf("searches[%d]: sheet name %q is already used", i, sheet))
		} else {
			sheets[key] = true
		}
	}

	if c.Tuition.Min <= 0 || c.Tuition.Max <= c.Tuition.Min {
		errs = append(errs, fmt.Errorf("tuition range [%d, %d] is invalid", c.Tuition.Min, c.Tuition.Max))
	}
	if c.Pacing.BetweenSearches < 0 || c.Pacing.BetweenPages < 0 {
		errs = append(errs, errors.New("pacing durations must not be negative"))
	}
	if c.Limit < 0 {
		errs = append(errs, errors.New("limit must not be negative"))
	}

	if len(c.Output.Formats) == 0 {
		errs = append(errs, errors.New("at least one output format is required"))
	}
	for _, f := range c.Output.Formats {
		if f != FormatXLSX && f != FormatJSON {
			errs = append(errs, fmt.Errorf("unknown output format %q", f))
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	return errors.Join(errs...)
}

func checkSheetName(name string) error {
	if utf8.RuneCountInString(name) > maxSheetName {
		return fmt.Errorf("sheet name %q is longer than %d characters", name, maxSheetName)
	}
	if strings.ContainsAny(name, `:\/?*[]`) {
		return fmt.Errorf("sheet name %q contains a character Excel does not allow", name)
	}
	return nil
}
