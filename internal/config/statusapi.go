package config

import (
	"errors"
	"strconv"
	"strings"
)

// StatusAPIConfig controls the read-only introspection HTTP surface: a
// single listener with no write endpoints, bound to 127.0.0.1 unless
// status-api-host names another address.
type StatusAPIConfig struct {
	Enabled       bool
	Host          string
	Port          int
	APIKey        string
	QueryLogPath  string
	QueryLogLimit int
}

func defaultStatusAPIConfig() StatusAPIConfig {
	return StatusAPIConfig{
		Host:          "127.0.0.1",
		Port:          8080,
		QueryLogPath:  "/var/lib/dns64ng/querylog.db",
		QueryLogLimit: 500,
	}
}

// LoadStatusAPIConfig parses the status API section of a config file. A
// missing file is not fatal: the API defaults to disabled, matching the
// resolver's own posture of never binding surfaces the operator didn't
// ask for.
func LoadStatusAPIConfig(filename string) (StatusAPIConfig, error) {
	cfg := defaultStatusAPIConfig()

	lines, err := readConfigLines(filename)
	if err != nil {
		return cfg, nil
	}

	for _, l := range lines {
		line := l.text
		switch {
		case strings.HasPrefix(line, "status-api-enabled"):
			val, _ := field(line, "status-api-enabled")
			cfg.Enabled = strings.HasPrefix(firstToken(val), "yes")

		case strings.HasPrefix(line, "status-api-host"):
			val, _ := field(line, "status-api-host")
			if h := firstToken(val); h != "" {
				cfg.Host = h
			}

		case strings.HasPrefix(line, "status-api-port"):
			val, _ := field(line, "status-api-port")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil {
				return StatusAPIConfig{}, errors.New("config: invalid status-api-port")
			}
			cfg.Port = n

		case strings.HasPrefix(line, "status-api-key"):
			val, _ := field(line, "status-api-key")
			cfg.APIKey = firstToken(val)

		case strings.HasPrefix(line, "query-log-path"):
			val, _ := field(line, "query-log-path")
			if p := firstToken(val); p != "" {
				cfg.QueryLogPath = p
			}

		case strings.HasPrefix(line, "query-log-limit"):
			val, _ := field(line, "query-log-limit")
			n, err := strconv.Atoi(firstToken(val))
			if err == nil && n > 0 {
				cfg.QueryLogLimit = n
			}
		}
	}

	if cfg.Enabled && (cfg.Port <= 0 || cfg.Port > 65535) {
		return StatusAPIConfig{}, errors.New("config: status-api-port must be 1..65535")
	}
	return cfg, nil
}
