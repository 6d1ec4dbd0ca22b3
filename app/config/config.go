package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tercih-asistani/internal/calculator"
	"github.com/tercih-asistani/internal/resolver"
)

type IntentCfg struct {
	MinScore float64 `yaml:"min_score" json:"min_score"`
}

type SessionCfg struct {
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
}

type ServerCfg struct {
	RequestTimeoutMs int `yaml:"request_timeout_ms" json:"request_timeout_ms"`
}

type AppCfg struct {
	Resolver   resolver.Config   `yaml:"resolver" json:"resolver"`
	Calculator calculator.Config `yaml:"calculator" json:"calculator"`
	Intent     IntentCfg         `yaml:"intent" json:"intent"`
	Session    SessionCfg        `yaml:"session" json:"session"`
	Server     ServerCfg         `yaml:"server" json:"server"`
}

var C AppCfg

func Load(path string) error {
	C = AppCfg{
		Resolver:   resolver.DefaultConfig(),
		Calculator: calculator.DefaultConfig(),
		Intent:     IntentCfg{MinScore: 2.0},
		Session:    SessionCfg{TTLSeconds: 1800},
		Server:     ServerCfg{RequestTimeoutMs: 2000},
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &C); err != nil {
		return err
	}
	// ENV overrides
	if v := os.Getenv("RESOLVER_ACCEPT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			C.Resolver.AcceptThreshold = f
		}
	}
	if v := os.Getenv("CALC_DEFAULT_MARGIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			C.Calculator.DefaultMargin = f
		}
	}
	return nil
}

func SessionTTL() time.Duration { return time.Duration(C.Session.TTLSeconds) * time.Second }

// RequestTimeout bounds one message's trip through the pipeline.
func RequestTimeout() time.Duration {
	ms := C.Server.RequestTimeoutMs
	if ms <= 0 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}
