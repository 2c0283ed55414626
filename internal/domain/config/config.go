package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	domainerr "scalesite/internal/domain/errors"
)

type Config struct {
	Site    SiteConfig    `yaml:"site"`
	CMS     CMSConfig     `yaml:"cms"`
	Storage StorageConfig `yaml:"storage"`
	Serve   ServeConfig   `yaml:"serve"`
	Log     LogConfig     `yaml:"log"`
}

type SiteConfig struct {
	Title           string `yaml:"title"`
	SiteURL         string `yaml:"site_url"`
	DefaultPageSize int    `yaml:"default_page_size"`
}

type CMSConfig struct {
	BaseURL           string        `yaml:"base_url"`
	MediaBaseURL      string        `yaml:"media_base_url"`
	APIToken          string        `yaml:"api_token"`
	Timeout           time.Duration `yaml:"timeout"`
	AuthorPlaceholder string        `yaml:"author_placeholder"`
	LeadsPath         string        `yaml:"leads_path"`
}

// MediaBase is the prefix for relative media URLs.
func (c CMSConfig) MediaBase() string {
	if s := strings.TrimSpace(c.MediaBaseURL); s != "" {
		return strings.TrimSuffix(s, "/")
	}
	return strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
}

type StorageConfig struct {
	DraftPath string `yaml:"draft_path"`
	ExportDir string `yaml:"export_dir"`
}

type ServeConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	EnvCMSURL   = "SCALESITE_CMS_URL"
	EnvCMSToken = "SCALESITE_CMS_TOKEN"
)

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:           "SCALE",
			DefaultPageSize: 9,
		},
		CMS: CMSConfig{
			BaseURL:           "http://localhost:1337",
			Timeout:           10 * time.Second,
			AuthorPlaceholder: "SCALE Author",
			LeadsPath:         "/api/industry-collaborations",
		},
		Storage: StorageConfig{
			DraftPath: ".scalesite/drafts.db",
			ExportDir: "export",
		},
		Serve: ServeConfig{
			Addr:  ":8080",
			Watch: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if s := strings.TrimSpace(c.Site.SiteURL); s != "" && !isValidAbsURL(s) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}
	if c.Site.DefaultPageSize <= 0 || c.Site.DefaultPageSize > 100 {
		ve.Add("site.default_page_size", "must be between 1 and 100")
	}

	if strings.TrimSpace(c.CMS.BaseURL) == "" {
		ve.Add("cms.base_url", "must not be empty")
	} else if !isValidAbsURL(c.CMS.BaseURL) {
		ve.Add("cms.base_url", "must be a valid absolute URL")
	}
	if s := strings.TrimSpace(c.CMS.MediaBaseURL); s != "" && !isValidAbsURL(s) {
		ve.Add("cms.media_base_url", "must be a valid absolute URL")
	}
	if c.CMS.Timeout <= 0 {
		ve.Add("cms.timeout", "must be positive")
	}
	if !strings.HasPrefix(c.CMS.LeadsPath, "/") {
		ve.Add("cms.leads_path", "must start with '/'")
	}

	if strings.TrimSpace(c.Storage.DraftPath) == "" {
		ve.Add("storage.draft_path", "must not be empty")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		ve.Add("log.level", "must be one of debug, info, warn, error")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvCMSURL)); v != "" {
		c.CMS.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCMSToken)); v != "" {
		c.CMS.APIToken = v
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	// fields present in the file override the defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(err) {
		cfg = Default()
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}
	return cfg, err
}
