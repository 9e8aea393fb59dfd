package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEnvFile               = ".env"
	defaultSiteFile              = "site.yaml"
	defaultAddr                  = ":8080"
	defaultReadTimeout           = 15 * time.Second
	defaultWriteTimeout          = 30 * time.Second
	defaultIdleTimeout           = 120 * time.Second
	defaultShutdownTimeout       = 10 * time.Second
	defaultContentDir            = "content"
	defaultSearchMinLength       = 2
	defaultHomeLimit             = 3
	defaultNetworkingFallbackURL = "courses/networking.html"
	defaultRevealThreshold       = 0.15
	defaultRevealDelayBase       = 150 * time.Millisecond
	defaultSessionLifetime       = 5 * 24 * time.Hour
	defaultContactEmail          = "kidsdevteam@gmail.com"
	defaultLandingPath           = "index.html"
	defaultLoginPath             = "login.html"
	defaultDashboardPath         = "dashboard.html"
	defaultSiteName              = "KidsDev Academy"
)

var defaultNestedMarkers = []string{"/courses/", "/posts/", "/daily/", "/challenges/", "/curriculum/"}

// Config captures all runtime configuration organised by concern.
type Config struct {
	LogLevel string
	Server   ServerConfig
	Site     SiteConfig
	Content  ContentConfig
	Reveal   RevealConfig
	Firebase FirebaseConfig
	Session  SessionConfig
	Contact  ContactConfig
	Paths    PathsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	DevMode         bool
}

// SiteConfig holds presentation settings shared by every page.
type SiteConfig struct {
	Name    string
	Tagline string
	FAQ     []FAQEntry
}

// FAQEntry is one question/answer pair of the FAQ accordion.
type FAQEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// SourceConfig names one JSON content collection.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Type       string `yaml:"type"`
	Networking bool   `yaml:"networking"`
}

// ContentConfig controls content loading, rendering and search.
type ContentConfig struct {
	Dir                   string
	Sources               []SourceConfig
	RefreshInterval       time.Duration
	NestedMarkers         []string
	SearchMinLength       int
	HomePostLimit         int
	HomeCourseLimit       int
	NetworkingFallbackURL string
	CurriculumFile        string
}

// RevealConfig tunes scroll-reveal behaviour.
type RevealConfig struct {
	Threshold float64
	DelayBase time.Duration
}

// FirebaseConfig stores Firebase project settings for both the Admin SDK and the browser SDK.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	APIKey          string
	AuthDomain      string
	SessionLifetime time.Duration
}

// Enabled reports whether a Firebase project is configured.
func (c FirebaseConfig) Enabled() bool {
	return strings.TrimSpace(c.ProjectID) != ""
}

// SessionConfig controls signed cookie keys.
type SessionConfig struct {
	HashKey      string
	BlockKey     string
	CookieSecure bool
}

// ContactConfig configures the contact form.
type ContactConfig struct {
	Email       string
	PubSubTopic string
}

// PathsConfig lists site-relative navigation targets.
type PathsConfig struct {
	Landing   string
	Login     string
	Dashboard string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	siteFile     string
	siteFileSet  bool
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithSiteFile sets the site.yaml path. An explicitly configured file must exist.
func WithSiteFile(path string) Option {
	return func(o *loaderOptions) {
		o.siteFile = path
		o.siteFileSet = true
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

type lookupFunc func(string) (string, bool)

// Load assembles the configuration from defaults, site.yaml, .env overrides and environment
// variables, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		siteFile:     defaultSiteFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	siteFile := options.siteFile
	if value, ok := lookup("KIDSDEV_SITE_FILE"); ok && strings.TrimSpace(value) != "" {
		siteFile = strings.TrimSpace(value)
		options.siteFileSet = true
	}
	site, err := loadSiteFile(siteFile, options.siteFileSet)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()
	site.apply(&cfg)

	cfg.LogLevel = stringWithDefault(lookup, "KIDSDEV_LOG_LEVEL", "info")
	cfg.Server.Addr = stringWithDefault(lookup, "KIDSDEV_ADDR", cfg.Server.Addr)
	if port, ok := lookup("PORT"); ok && strings.TrimSpace(port) != "" {
		cfg.Server.Addr = ":" + strings.TrimSpace(port)
	}
	cfg.Server.ReadTimeout = durationWithDefault(lookup, "KIDSDEV_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = durationWithDefault(lookup, "KIDSDEV_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.DevMode = boolWithDefault(lookup, "KIDSDEV_DEV_MODE", cfg.Server.DevMode)

	cfg.Content.Dir = stringWithDefault(lookup, "KIDSDEV_CONTENT_DIR", cfg.Content.Dir)
	cfg.Content.RefreshInterval = durationWithDefault(lookup, "KIDSDEV_CONTENT_REFRESH", cfg.Content.RefreshInterval)
	cfg.Content.SearchMinLength = intWithDefault(lookup, "KIDSDEV_SEARCH_MIN_LENGTH", cfg.Content.SearchMinLength)

	cfg.Firebase.ProjectID = stringWithDefault(lookup, "KIDSDEV_FIREBASE_PROJECT_ID", cfg.Firebase.ProjectID)
	cfg.Firebase.CredentialsFile = stringWithDefault(lookup, "KIDSDEV_FIREBASE_CREDENTIALS_FILE", "")
	cfg.Firebase.APIKey = stringWithDefault(lookup, "KIDSDEV_FIREBASE_API_KEY", cfg.Firebase.APIKey)
	cfg.Firebase.AuthDomain = stringWithDefault(lookup, "KIDSDEV_FIREBASE_AUTH_DOMAIN", cfg.Firebase.AuthDomain)
	cfg.Firebase.SessionLifetime = durationWithDefault(lookup, "KIDSDEV_SESSION_LIFETIME", cfg.Firebase.SessionLifetime)

	cfg.Session.HashKey = stringWithDefault(lookup, "KIDSDEV_SESSION_HASH_KEY", "")
	cfg.Session.BlockKey = stringWithDefault(lookup, "KIDSDEV_SESSION_BLOCK_KEY", "")
	cfg.Session.CookieSecure = boolWithDefault(lookup, "KIDSDEV_COOKIE_SECURE", !cfg.Server.DevMode)

	cfg.Contact.PubSubTopic = stringWithDefault(lookup, "KIDSDEV_CONTACT_TOPIC", cfg.Contact.PubSubTopic)
	cfg.Contact.Email = stringWithDefault(lookup, "KIDSDEV_CONTACT_EMAIL", cfg.Contact.Email)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Site: SiteConfig{Name: defaultSiteName},
		Content: ContentConfig{
			Dir: defaultContentDir,
			Sources: []SourceConfig{
				{Name: "posts", Path: "data/posts.json", Type: "post"},
				{Name: "courses", Path: "data/courses.json", Type: "course"},
				{Name: "challenges", Path: "data/challenges.json", Type: "challenge"},
				{Name: "daily", Path: "data/daily.json", Type: "daily"},
				{Name: "networking", Path: "data/networking.json", Type: "course", Networking: true},
			},
			NestedMarkers:         append([]string(nil), defaultNestedMarkers...),
			SearchMinLength:       defaultSearchMinLength,
			HomePostLimit:         defaultHomeLimit,
			HomeCourseLimit:       defaultHomeLimit,
			NetworkingFallbackURL: defaultNetworkingFallbackURL,
			CurriculumFile:        "curriculum.yaml",
		},
		Reveal: RevealConfig{
			Threshold: defaultRevealThreshold,
			DelayBase: defaultRevealDelayBase,
		},
		Firebase: FirebaseConfig{SessionLifetime: defaultSessionLifetime},
		Contact:  ContactConfig{Email: defaultContactEmail},
		Paths: PathsConfig{
			Landing:   defaultLandingPath,
			Login:     defaultLoginPath,
			Dashboard: defaultDashboardPath,
		},
	}
}

func validate(cfg Config) error {
	var fields []string
	if len(cfg.Content.Sources) == 0 {
		fields = append(fields, "Content.Sources")
	}
	for i, src := range cfg.Content.Sources {
		if strings.TrimSpace(src.Name) == "" || strings.TrimSpace(src.Path) == "" {
			fields = append(fields, fmt.Sprintf("Content.Sources[%d]", i))
		}
	}
	if cfg.Content.SearchMinLength < 1 || cfg.Content.SearchMinLength > 2 {
		fields = append(fields, "Content.SearchMinLength")
	}
	if cfg.Content.RefreshInterval < 0 {
		fields = append(fields, "Content.RefreshInterval")
	}
	if cfg.Reveal.Threshold < 0 || cfg.Reveal.Threshold > 1 {
		fields = append(fields, "Reveal.Threshold")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		fields = append(fields, "Server.Addr")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: read env file %q: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup lookupFunc, key, def string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return def
}

func durationWithDefault(lookup lookupFunc, key string, def time.Duration) time.Duration {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return d
}

func intWithDefault(lookup lookupFunc, key string, def int) int {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}

func boolWithDefault(lookup lookupFunc, key string, def bool) bool {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return b
}

// siteFile mirrors the on-disk layout of site.yaml.
type siteFile struct {
	Site struct {
		Name         string `yaml:"name"`
		Tagline      string `yaml:"tagline"`
		ContactEmail string `yaml:"contact_email"`
	} `yaml:"site"`
	Server struct {
		Addr    string `yaml:"addr"`
		DevMode *bool  `yaml:"dev_mode"`
	} `yaml:"server"`
	Content struct {
		Dir                   string         `yaml:"dir"`
		RefreshInterval       string         `yaml:"refresh_interval"`
		Sources               []SourceConfig `yaml:"sources"`
		NestedMarkers         []string       `yaml:"nested_markers"`
		SearchMinLength       int            `yaml:"search_min_length"`
		NetworkingFallbackURL string         `yaml:"networking_fallback_url"`
		CurriculumFile        string         `yaml:"curriculum_file"`
		Home                  struct {
			Posts   int `yaml:"posts"`
			Courses int `yaml:"courses"`
		} `yaml:"home"`
	} `yaml:"content"`
	Reveal struct {
		Threshold   *float64 `yaml:"threshold"`
		DelayBaseMS int      `yaml:"delay_base_ms"`
	} `yaml:"reveal"`
	Firebase struct {
		ProjectID  string `yaml:"project_id"`
		APIKey     string `yaml:"api_key"`
		AuthDomain string `yaml:"auth_domain"`
	} `yaml:"firebase"`
	Contact struct {
		PubSubTopic string `yaml:"pubsub_topic"`
	} `yaml:"contact"`
	Paths struct {
		Landing   string `yaml:"landing"`
		Login     string `yaml:"login"`
		Dashboard string `yaml:"dashboard"`
	} `yaml:"paths"`
	FAQ []FAQEntry `yaml:"faq"`
}

func loadSiteFile(path string, required bool) (siteFile, error) {
	var out siteFile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return out, nil
		}
		return out, fmt.Errorf("config: read site file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("config: parse site file %q: %w", path, err)
	}
	return out, nil
}

func (s siteFile) apply(cfg *Config) {
	setString(&cfg.Site.Name, s.Site.Name)
	setString(&cfg.Site.Tagline, s.Site.Tagline)
	setString(&cfg.Contact.Email, s.Site.ContactEmail)
	if len(s.FAQ) > 0 {
		cfg.Site.FAQ = s.FAQ
	}

	setString(&cfg.Server.Addr, s.Server.Addr)
	if s.Server.DevMode != nil {
		cfg.Server.DevMode = *s.Server.DevMode
	}

	setString(&cfg.Content.Dir, s.Content.Dir)
	if d, err := time.ParseDuration(strings.TrimSpace(s.Content.RefreshInterval)); err == nil {
		cfg.Content.RefreshInterval = d
	}
	if len(s.Content.Sources) > 0 {
		cfg.Content.Sources = s.Content.Sources
	}
	if len(s.Content.NestedMarkers) > 0 {
		cfg.Content.NestedMarkers = s.Content.NestedMarkers
	}
	if s.Content.SearchMinLength != 0 {
		cfg.Content.SearchMinLength = s.Content.SearchMinLength
	}
	setString(&cfg.Content.NetworkingFallbackURL, s.Content.NetworkingFallbackURL)
	setString(&cfg.Content.CurriculumFile, s.Content.CurriculumFile)
	if s.Content.Home.Posts > 0 {
		cfg.Content.HomePostLimit = s.Content.Home.Posts
	}
	if s.Content.Home.Courses > 0 {
		cfg.Content.HomeCourseLimit = s.Content.Home.Courses
	}

	if s.Reveal.Threshold != nil {
		cfg.Reveal.Threshold = *s.Reveal.Threshold
	}
	if s.Reveal.DelayBaseMS > 0 {
		cfg.Reveal.DelayBase = time.Duration(s.Reveal.DelayBaseMS) * time.Millisecond
	}

	setString(&cfg.Firebase.ProjectID, s.Firebase.ProjectID)
	setString(&cfg.Firebase.APIKey, s.Firebase.APIKey)
	setString(&cfg.Firebase.AuthDomain, s.Firebase.AuthDomain)
	setString(&cfg.Contact.PubSubTopic, s.Contact.PubSubTopic)

	setString(&cfg.Paths.Landing, s.Paths.Landing)
	setString(&cfg.Paths.Login, s.Paths.Login)
	setString(&cfg.Paths.Dashboard, s.Paths.Dashboard)
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
