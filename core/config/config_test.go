package config

import "testing"

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
		Backend:  BackendConfig{BaseURL: "http://backend:8080/"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Backend.BaseURL != "http://backend:8080" {
		t.Errorf("base url = %q, trailing slash should be trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Session.Driver != SessionDriverMemory {
		t.Errorf("session driver = %q, want memory default", cfg.Session.Driver)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing backend url", func(c *Config) { c.Backend.BaseURL = "  " }},
		{"negative timeout", func(c *Config) { c.Backend.TimeoutSeconds = -1 }},
		{"unknown session driver", func(c *Config) { c.Session.Driver = "etcd" }},
		{"redis without addr", func(c *Config) { c.Session.Driver = "redis" }},
		{"negative ttl", func(c *Config) { c.Session.TTLSeconds = -5 }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = "webhook" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := Normalize(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNormalizeRedisDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Session = SessionConfig{Driver: "Redis", RedisAddr: "localhost:6379", TTLSeconds: 3600}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Session.Driver != SessionDriverRedis {
		t.Errorf("driver = %q, want lowercase redis", cfg.Session.Driver)
	}
}
