package config

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nat64lab/dns64ng/internal/synth"
	"github.com/nat64lab/dns64ng/internal/upstreamclient"
)

// ResolverConfig holds the fully-parsed, validated settings for the
// dns64ng resolver, loaded from a line-oriented text file grounded on
// the original loadConfig format.
type ResolverConfig struct {
	Servers           []net.IP
	SelectionMode     upstreamclient.SelectionMode
	Prefix            synth.Prefix
	Timeout           time.Duration
	ResendAttempts    int
	NumThreads        int
	ResponseMaxLength int
	Port              uint16
	Debug             bool
}

// defaultResolverConfig mirrors the original Server's constructor
// defaults exactly.
func defaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SelectionMode:     upstreamclient.Random,
		Timeout:           time.Second,
		ResendAttempts:    2,
		NumThreads:        10,
		ResponseMaxLength: 512,
		Port:              53,
	}
}

// LoadResolverConfig parses a resolver configuration file. It returns a
// *ConfigError for anything that would abort startup: a missing file, an
// unusable dns64-prefix line, or an empty upstream server list.
func LoadResolverConfig(filename string, logger *slog.Logger) (ResolverConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := defaultResolverConfig()

	lines, err := readConfigLines(filename)
	if err != nil {
		return ResolverConfig{}, err
	}

	prefixSet := false
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		line := l.text
		switch {
		case strings.HasPrefix(line, "nameserver"):
			val, _ := field(line, "nameserver")
			if strings.HasPrefix(val, "default") {
				more, err := readConfigLines("/etc/resolv.conf")
				if err != nil {
					logger.Warn("config: could not load default nameservers", "line", l.num, "err", err)
					continue
				}
				lines = append(lines, more...)
				continue
			}
			addr := firstToken(val)
			ip := net.ParseIP(addr).To4()
			if ip == nil {
				logger.Warn("config: invalid nameserver address", "line", l.num, "value", addr)
				continue
			}
			cfg.Servers = append(cfg.Servers, ip)

		case strings.HasPrefix(line, "selection-mode"):
			val, _ := field(line, "selection-mode")
			switch {
			case strings.HasPrefix(val, "random"):
				cfg.SelectionMode = upstreamclient.Random
			case strings.HasPrefix(val, "round-robin"):
				cfg.SelectionMode = upstreamclient.RoundRobin
			default:
				logger.Warn("config: invalid selection-mode, defaulting to random", "line", l.num)
				cfg.SelectionMode = upstreamclient.Random
			}

		case strings.HasPrefix(line, "dns64-prefix"):
			val, _ := field(line, "dns64-prefix")
			addr, lenStr, ok := strings.Cut(val, "/")
			if !ok {
				return ResolverConfig{}, &ConfigError{File: filename, Line: l.num, Msg: "invalid dns64-prefix: missing or bad prefix"}
			}
			length, err := strconv.Atoi(strings.TrimSpace(firstToken(lenStr)))
			if err != nil {
				return ResolverConfig{}, &ConfigError{File: filename, Line: l.num, Msg: "invalid dns64-prefix: missing or bad prefix"}
			}
			ip := net.ParseIP(strings.TrimSpace(addr))
			if ip == nil {
				return ResolverConfig{}, &ConfigError{File: filename, Line: l.num, Msg: "invalid dns64-prefix: bad address"}
			}
			p, err := synth.NewPrefix(ip, length)
			if err != nil {
				return ResolverConfig{}, &ConfigError{File: filename, Line: l.num, Msg: "invalid dns64-prefix: " + err.Error()}
			}
			cfg.Prefix = p
			prefixSet = true

		case strings.HasPrefix(line, "debugging"):
			val, _ := field(line, "debugging")
			cfg.Debug = strings.HasPrefix(val, "yes")

		case strings.HasPrefix(line, "timeout-time"):
			val, _ := field(line, "timeout-time")
			sec, usec, ok := parseSecUsec(val)
			if !ok || sec < 0 || sec > 32767 || usec < 0 || usec > 999999 {
				logger.Warn("config: invalid timeout-time, defaulting to 1.0 sec", "line", l.num)
				cfg.Timeout = time.Second
				continue
			}
			cfg.Timeout = time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond

		case strings.HasPrefix(line, "resend-attempts"):
			val, _ := field(line, "resend-attempts")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil || n < 0 {
				logger.Warn("config: invalid resend-attempts, defaulting to 2", "line", l.num)
				cfg.ResendAttempts = 2
				continue
			}
			cfg.ResendAttempts = n

		case strings.HasPrefix(line, "num-threads"):
			val, _ := field(line, "num-threads")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil || n < 0 {
				logger.Warn("config: invalid num-threads, defaulting to 10", "line", l.num)
				cfg.NumThreads = 10
				continue
			}
			cfg.NumThreads = n

		case strings.HasPrefix(line, "response-maxlength"):
			val, _ := field(line, "response-maxlength")
			n, err := strconv.Atoi(firstToken(val))
			if err != nil || n < 0 {
				logger.Warn("config: invalid response-maxlength, defaulting to 512", "line", l.num)
				cfg.ResponseMaxLength = 512
				continue
			}
			cfg.ResponseMaxLength = n

		case strings.HasPrefix(line, "port"):
			val, _ := field(line, "port")
			n, err := strconv.ParseUint(firstToken(val), 10, 16)
			if err != nil {
				logger.Warn("config: invalid port, defaulting to 53", "line", l.num)
				cfg.Port = 53
				continue
			}
			cfg.Port = uint16(n)
		}
	}

	if !prefixSet {
		return ResolverConfig{}, &ConfigError{File: filename, Msg: "dns64-prefix is required"}
	}
	if len(cfg.Servers) == 0 {
		return ResolverConfig{}, &ConfigError{File: filename, Msg: "at least one nameserver is required"}
	}
	return cfg, nil
}

func firstToken(s string) string {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = s[:i]
	}
	return s
}

// parseSecUsec parses a "sec.usec" duration token the way
// sscanf(begin, "%ld.%ld", &sec, &usec) does: both integer parts are
// required. A bare integer with no dot does not match sscanf's format
// string and must fail here too, so the caller falls back to its
// default instead of silently accepting a bare seconds count.
func parseSecUsec(s string) (sec, usec int, ok bool) {
	s = firstToken(s)
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return 0, 0, false
	}
	sec, err1 := strconv.Atoi(whole)
	usec, err2 := strconv.Atoi(frac)
	return sec, usec, err1 == nil && err2 == nil
}
