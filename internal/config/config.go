package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts human-readable values ("5s", "1h") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return err
	}
	*d = Duration(ns)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type ModelConfig struct {
	Provider string            `yaml:"provider"`
	URL      string            `yaml:"url"`
	APIKey   string            `yaml:"api_key"`
	Name     string            `yaml:"name"`
	LabelMap map[string]string `yaml:"label_map"`
}

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Model ModelConfig `yaml:"model"`
	Aux   struct {
		Enabled  bool        `yaml:"enabled"`
		FakeNews ModelConfig `yaml:"fake_news"`
		Sarcasm  ModelConfig `yaml:"sarcasm"`
	} `yaml:"aux"`
	Predict struct {
		Timeout    Duration `yaml:"timeout"`
		ChunkChars int      `yaml:"chunk_chars"`
	} `yaml:"predict"`
	Fetch struct {
		Timeout Duration `yaml:"timeout"`
	} `yaml:"fetch"`
	MediaCloud struct {
		APIKey     string   `yaml:"api_key"`
		BaseURL    string   `yaml:"base_url"`
		WindowDays int      `yaml:"window_days"`
		CacheTTL   Duration `yaml:"cache_ttl"`
	} `yaml:"mediacloud"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8001"
	cfg.Dev.Mode = true
	cfg.Model.Provider = "noop"
	cfg.Model.Name = "bert-tiny-finetuned-fake-news-detection"
	cfg.Aux.FakeNews.Provider = "noop"
	cfg.Aux.Sarcasm.Provider = "noop"
	cfg.Aux.Sarcasm.Name = "english-sarcasm-detector"
	cfg.Predict.Timeout = Duration(5 * time.Second)
	cfg.Predict.ChunkChars = 2000
	cfg.Fetch.Timeout = Duration(15 * time.Second)
	cfg.MediaCloud.BaseURL = "https://search.mediacloud.org"
	cfg.MediaCloud.WindowDays = 30
	cfg.MediaCloud.CacheTTL = Duration(time.Hour)
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ORBIT_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ORBIT_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("ORBIT_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ORBIT_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ORBIT_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("ORBIT_MODEL_URL"); v != "" {
		cfg.Model.URL = v
	}
	if v := os.Getenv("ORBIT_MODEL_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("ORBIT_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("ORBIT_MODEL_LABEL_MAP"); v != "" {
		if m := parseLabelMap(v); len(m) > 0 {
			cfg.Model.LabelMap = m
		}
	}
	if v := os.Getenv("ORBIT_AUX_ENABLED"); v != "" {
		cfg.Aux.Enabled = parseBool(v, cfg.Aux.Enabled)
	}
	if v := os.Getenv("ORBIT_AUX_FAKE_NEWS_URL"); v != "" {
		cfg.Aux.FakeNews.Provider = "inference"
		cfg.Aux.FakeNews.URL = v
	}
	if v := os.Getenv("ORBIT_AUX_SARCASM_URL"); v != "" {
		cfg.Aux.Sarcasm.Provider = "inference"
		cfg.Aux.Sarcasm.URL = v
	}
	if v := os.Getenv("ORBIT_AUX_API_KEY"); v != "" {
		cfg.Aux.FakeNews.APIKey = v
		cfg.Aux.Sarcasm.APIKey = v
	}
	if v := os.Getenv("ORBIT_PREDICT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Predict.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("ORBIT_PREDICT_CHUNK_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Predict.ChunkChars = n
		}
	}
	if v := os.Getenv("ORBIT_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Fetch.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("ORBIT_MEDIACLOUD_API_KEY"); v != "" {
		cfg.MediaCloud.APIKey = v
	}
	if v := os.Getenv("ORBIT_MEDIACLOUD_BASE_URL"); v != "" {
		cfg.MediaCloud.BaseURL = v
	}
	if v := os.Getenv("ORBIT_MEDIACLOUD_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MediaCloud.WindowDays = n
		}
	}
	if v := os.Getenv("ORBIT_MEDIACLOUD_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MediaCloud.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("ORBIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

// parseLabelMap reads "LABEL_1=FAKE,LABEL_0=REAL" style overrides.
func parseLabelMap(input string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		out[kv[0]] = strings.ToUpper(kv[1])
	}
	return out
}
