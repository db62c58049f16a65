// Command dns64ng is a DNS64 translating resolver: it accepts queries
// over IPv6, forwards them to configured IPv4 upstreams, and synthesizes
// AAAA answers from A records under a DNS64 prefix per RFC 6147.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/daemon"
	"github.com/nat64lab/dns64ng/internal/dns64server"
	"github.com/nat64lab/dns64ng/internal/logging"
	"github.com/nat64lab/dns64ng/internal/querylog"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "/etc/dns64ng.conf", "path to the resolver config file")
		daemonize  = flag.Bool("daemonize", false, "detach and run in the background")
		useSyslog  = flag.Bool("syslog", false, "log to syslog instead of stderr")
		logLevel   = flag.String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	)
	flag.Parse()

	if *daemonize {
		spawnedChild, err := daemon.Daemonize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dns64ng: daemonize: %v\n", err)
			return 1
		}
		if spawnedChild {
			return 0
		}
	}

	instanceID := uuid.NewString()
	logger := logging.Configure(logging.Config{
		Level:       *logLevel,
		Syslog:      *useSyslog,
		SyslogTag:   "dns64ng",
		IncludePID:  true,
		ExtraFields: map[string]string{"instance": instanceID},
	})

	cfg, err := config.LoadResolverConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		return 1
	}

	if cfg.Debug {
		logger = logging.Configure(logging.Config{
			Level:       "DEBUG",
			Syslog:      *useSyslog,
			SyslogTag:   "dns64ng",
			IncludePID:  true,
			ExtraFields: map[string]string{"instance": instanceID},
		})
	}

	statusAPICfg, err := config.LoadStatusAPIConfig(*configPath)
	if err != nil {
		logger.Error("failed to load status api config", "err", err)
		return 1
	}

	logger.Info("dns64ng starting", "instance", instanceID)
	r := dns64server.NewRunner(logger)
	r.StatusAPI = statusAPICfg

	if statusAPICfg.Enabled && statusAPICfg.QueryLogPath != "" {
		store, err := querylog.Open(statusAPICfg.QueryLogPath)
		if err != nil {
			logger.Error("failed to open query log", "err", err)
			return 1
		}
		defer store.Close()
		r.QueryLog = store
	}

	if err := r.Run(cfg); err != nil {
		logger.Error("resolver exited with error", "err", err)
		return 1
	}
	logger.Info("dns64ng stopped")
	return 0
}
