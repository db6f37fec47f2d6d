package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/Aashish23092/legaldoc-guardian/classifier"
	"github.com/Aashish23092/legaldoc-guardian/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEGALDOC_SERVER_PORT.
const EnvPrefix = "LEGALDOC"

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr"`
	Locator    LocatorConfig    `mapstructure:"locator" yaml:"locator"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	PDF        PDFConfig        `mapstructure:"pdf" yaml:"pdf"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        string `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

type OCRConfig struct {
	// Engines lists token sources in fallback order; paddle runs first by default.
	Engines        []string      `mapstructure:"engines" yaml:"engines"`
	TessdataPrefix string        `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`
	Language       string        `mapstructure:"language" yaml:"language"`
	Preprocess     bool          `mapstructure:"preprocess" yaml:"preprocess"`
	PaddleURL      string        `mapstructure:"paddle_url" yaml:"paddle_url"`
	PaddlePython   string        `mapstructure:"paddle_python" yaml:"paddle_python"`
	PaddleLang     string        `mapstructure:"paddle_lang" yaml:"paddle_lang"`
	PaddleModelDir string        `mapstructure:"paddle_model_dir" yaml:"paddle_model_dir"`
	PaddleAttempts uint          `mapstructure:"paddle_attempts" yaml:"paddle_attempts"`
	PaddleDelay    time.Duration `mapstructure:"paddle_delay" yaml:"paddle_delay"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type LocatorConfig struct {
	MinDX            float64  `mapstructure:"min_dx" yaml:"min_dx"`
	RowTolerance     float64  `mapstructure:"row_tolerance" yaml:"row_tolerance"`
	NameRowTolerance float64  `mapstructure:"name_row_tolerance" yaml:"name_row_tolerance"`
	AmountReach      float64  `mapstructure:"amount_reach" yaml:"amount_reach"`
	AmountCandidates int      `mapstructure:"amount_candidates" yaml:"amount_candidates"`
	AccountMinDigits int      `mapstructure:"account_min_digits" yaml:"account_min_digits"`
	CurrencyMarkers  []string `mapstructure:"currency_markers" yaml:"currency_markers"`
}

type ClassifierConfig struct {
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`
}

type PDFConfig struct {
	MinTextTokens  int `mapstructure:"min_text_tokens" yaml:"min_text_tokens"`
	OCRConcurrency int `mapstructure:"ocr_concurrency" yaml:"ocr_concurrency"`
}

// ToLocator converts the locator section into extraction tolerances.
func (c LocatorConfig) ToLocator() utils.LocatorConfig {
	return utils.LocatorConfig{
		MinDX:            c.MinDX,
		RowTolerance:     c.RowTolerance,
		NameRowTolerance: c.NameRowTolerance,
		AmountReach:      c.AmountReach,
		AmountCandidates: c.AmountCandidates,
		AccountMinDigits: c.AccountMinDigits,
		CurrencyMarkers:  c.CurrencyMarkers,
	}
}

func setDefaults(v *viper.Viper) {
	loc := utils.DefaultLocatorConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("ocr.engines", []string{"paddle", "tesseract"})
	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("ocr.paddle_url", "")
	v.SetDefault("ocr.paddle_python", "python3")
	v.SetDefault("ocr.paddle_lang", "en")
	v.SetDefault("ocr.paddle_model_dir", "")
	v.SetDefault("ocr.paddle_attempts", 3)
	v.SetDefault("ocr.paddle_delay", "500ms")
	v.SetDefault("ocr.timeout", "60s")

	v.SetDefault("locator.min_dx", loc.MinDX)
	v.SetDefault("locator.row_tolerance", loc.RowTolerance)
	v.SetDefault("locator.name_row_tolerance", loc.NameRowTolerance)
	v.SetDefault("locator.amount_reach", loc.AmountReach)
	v.SetDefault("locator.amount_candidates", loc.AmountCandidates)
	v.SetDefault("locator.account_min_digits", loc.AccountMinDigits)
	v.SetDefault("locator.currency_markers", loc.CurrencyMarkers)

	v.SetDefault("classifier.model_path", classifier.DefaultModelPath)

	v.SetDefault("pdf.min_text_tokens", 5)
	v.SetDefault("pdf.ocr_concurrency", 4)
}

// Manager loads configuration and reloads it when the config file changes.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager reads .env, then the optional config file, then LEGALDOC_*
// environment variables. A missing default config file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variables the service has always honoured.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "SERVER_PORT")
	_ = v.BindEnv("ocr.tessdata_prefix", EnvPrefix+"_OCR_TESSDATA_PREFIX", "TESSDATA_PREFIX")
	_ = v.BindEnv("ocr.paddle_url", EnvPrefix+"_OCR_PADDLE_URL", "PADDLEOCR_API_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("legaldoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.legaldoc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	m := &Manager{v: v}
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.config = cfg
	return m, nil
}

func (m *Manager) load() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Server.Port == "" {
		return nil, errors.New("server.port must not be empty")
	}
	return &cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// ConfigFile returns the file in use, or "" when running on defaults.
func (m *Manager) ConfigFile() string {
	return m.v.ConfigFileUsed()
}

// OnChange registers a callback for config reloads.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Reload re-reads the config file and notifies callbacks. A config that no
// longer parses keeps the previous one in place.
func (m *Manager) Reload() error {
	if m.v.ConfigFileUsed() != "" {
		if err := m.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	cfg, err := m.load()
	if err != nil {
		return err
	}

	m.apply(cfg)
	return nil
}

func (m *Manager) apply(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// WatchConfig enables hot-reloading of the config file. onError receives
// reload failures; it may be nil.
func (m *Manager) WatchConfig(onError func(error)) {
	if m.v.ConfigFileUsed() == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := m.load()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		m.apply(cfg)
	})
	m.v.WatchConfig()
}

// LoadConfig is a one-shot load for commands that do not watch for changes.
func LoadConfig(cfgFile string) (*Config, error) {
	m, err := NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	return m.Get(), nil
}
