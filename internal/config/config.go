// internal/config/config.go
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/NivBraz/wordfreq/pkg/resource"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Input formats.
const (
	InputText = "text"
	InputHTML = "html"
)

type Config struct {
	Input struct {
		Encoding   string `yaml:"encoding"`
		Format     string `yaml:"format"`
		Decompress string `yaml:"decompress"`
		ListFile   string `yaml:"listFile"`
	} `yaml:"input"`

	RateLimit struct {
		RequestsPerSecond int `yaml:"requestsPerSecond"`
		Burst             int `yaml:"burst"`
	} `yaml:"rateLimit"`

	HTTPClient struct {
		Timeout    int    `yaml:"timeout"`
		MaxRetries int    `yaml:"maxRetries"`
		RetryDelay int    `yaml:"retryDelay"`
		UserAgent  string `yaml:"userAgent"`
	} `yaml:"httpClient"`

	Output struct {
		TopWordsCount int    `yaml:"topWordsCount"`
		IncludeStats  bool   `yaml:"includeStats"`
		Format        string `yaml:"format"`
		PrettyPrint   bool   `yaml:"prettyPrint"`
		Progress      bool   `yaml:"progress"`
	} `yaml:"output"`

	WordProcessing struct {
		MinWordLength      int    `yaml:"minWordLength"`
		ConvertToLower     bool   `yaml:"convertToLower"`
		RemoveSpecialChars bool   `yaml:"removeSpecialChars"`
		WordBank           string `yaml:"wordBank"`
	} `yaml:"wordProcessing"`

	// Populated from Input.ListFile and the command line
	Resources []string `yaml:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	// Zero is a meaningful value for these, so they are seeded before a
	// file is decoded instead of filled in by setDefaults.
	cfg.HTTPClient.MaxRetries = 3
	cfg.Output.PrettyPrint = true
	setDefaults(&cfg)
	return &cfg
}

// Load reads and parses the configuration at path. An empty path yields the
// defaults. The result is not validated since resources are usually added
// afterwards from the command line.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if cfg.Input.ListFile != "" {
		resources, err := LoadResourcesFromFile(cfg.Input.ListFile)
		if err != nil {
			return nil, fmt.Errorf("error loading resources from file: %w", err)
		}
		cfg.Resources = resources
	}

	setDefaults(cfg)

	return cfg, nil
}

// LoadResourcesFromFile reads one resource location per line
func LoadResourcesFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("error opening resource list: %w", err)
	}
	defer file.Close()

	var resources []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		location := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if location != "" && !strings.HasPrefix(location, "#") {
			resources = append(resources, location)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading resource list: %w", err)
	}

	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources found in file %s", filepath)
	}

	return resources, nil
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = "utf-8"
	}
	if cfg.Input.Format == "" {
		cfg.Input.Format = InputText
	}
	if cfg.Input.Decompress == "" {
		cfg.Input.Decompress = resource.DecompressAuto
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.HTTPClient.Timeout == 0 {
		cfg.HTTPClient.Timeout = 30
	}
	if cfg.HTTPClient.RetryDelay == 0 {
		cfg.HTTPClient.RetryDelay = 1
	}
	if cfg.HTTPClient.UserAgent == "" {
		cfg.HTTPClient.UserAgent = "wordfreq/1.0"
	}
	if cfg.Output.TopWordsCount == 0 {
		cfg.Output.TopWordsCount = 1
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatText
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Resources) == 0 {
		return fmt.Errorf("no resources to count")
	}
	if !resource.ValidEncoding(c.Input.Encoding) {
		return fmt.Errorf("unsupported encoding %q", c.Input.Encoding)
	}
	switch c.Input.Format {
	case InputText, InputHTML:
	default:
		return fmt.Errorf("unknown input format %q", c.Input.Format)
	}
	switch c.Input.Decompress {
	case resource.DecompressAuto, resource.DecompressNone, resource.DecompressGzip,
		resource.DecompressZstd, resource.DecompressXz:
	default:
		return fmt.Errorf("unknown decompression mode %q", c.Input.Decompress)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Output.TopWordsCount < 0 {
		return fmt.Errorf("topWordsCount must not be negative")
	}
	if c.WordProcessing.MinWordLength < 0 {
		return fmt.Errorf("minWordLength must not be negative")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("requestsPerSecond must be positive")
	}
	if c.HTTPClient.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must not be negative")
	}
	if c.HTTPClient.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
