package config

import (
	"log/slog"
	"strconv"
	"strings"
)

// AAAAMode selects how the fake authoritative server answers AAAA
// queries, grounded on fakedns's Config::aaaaMode.
type AAAAMode int

const (
	AAAANo AAAAMode = iota
	AAAAYes
	AAAAProbability
)

// FakeServerConfig holds the settings for the fake authoritative server
// used to load-test a DNS64 resolver.
type FakeServerConfig struct {
	AAAAMode        AAAAMode
	AAAAProbability float64
	NumServers      int
	StartCPU        int
	StartPort       uint16
	Debug           bool
}

func defaultFakeServerConfig() FakeServerConfig {
	return FakeServerConfig{
		AAAAMode:   AAAANo,
		NumServers: 8,
		StartCPU:   1,
		StartPort:  1053,
	}
}

// LoadFakeServerConfig parses a fake-server configuration file. Unlike
// LoadResolverConfig, no key here is fatal on malformed input; every
// error is a warning that falls back to the compiled-in default.
func LoadFakeServerConfig(filename string, logger *slog.Logger) (FakeServerConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := defaultFakeServerConfig()

	lines, err := readConfigLines(filename)
	if err != nil {
		return FakeServerConfig{}, err
	}

	for _, l := range lines {
		line := l.text
		switch {
		case strings.HasPrefix(line, "have-AAAA"):
			val, _ := field(line, "have-AAAA")
			val = firstToken(val)
			switch {
			case strings.HasPrefix(val, "1"):
				cfg.AAAAMode = AAAAYes
			case strings.HasPrefix(val, "0") && !strings.HasPrefix(val, "0."):
				cfg.AAAAMode = AAAANo
			default:
				p, err := strconv.ParseFloat(val, 64)
				if err != nil || p < 0.0 || p > 1.0 {
					logger.Warn("config: invalid have-AAAA, defaulting to 0", "line", l.num)
					cfg.AAAAMode = AAAANo
					continue
				}
				cfg.AAAAMode = AAAAProbability
				cfg.AAAAProbability = p
			}

		case strings.HasPrefix(line, "debug"):
			val, _ := field(line, "debug")
			cfg.Debug = strings.HasPrefix(val, "yes")

		case strings.HasPrefix(line, "num-servers"):
			val, _ := field(line, "num-servers")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil || n < 0 {
				logger.Warn("config: invalid num-servers, defaulting to 8", "line", l.num)
				cfg.NumServers = 8
				continue
			}
			cfg.NumServers = n

		case strings.HasPrefix(line, "start-cpu"):
			val, _ := field(line, "start-cpu")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil || n < 0 {
				logger.Warn("config: invalid start-cpu, defaulting to 1", "line", l.num)
				cfg.StartCPU = 1
				continue
			}
			cfg.StartCPU = n

		case strings.HasPrefix(line, "start-port"):
			val, _ := field(line, "start-port")
			n, err := strconv.ParseUint(firstToken(val), 10, 16)
			if err != nil {
				logger.Warn("config: invalid start-port, defaulting to 1053", "line", l.num)
				cfg.StartPort = 1053
				continue
			}
			cfg.StartPort = uint16(n)
		}
	}

	return cfg, nil
}
