// Command fakedns64test is a fake authoritative DNS server used to load
// test a DNS64 resolver: it answers a fixed QNAME pattern with
// deterministic A records and a configurable AAAA policy, standing in
// for a real zone during benchmarking.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/daemon"
	"github.com/nat64lab/dns64ng/internal/fakedns"
	"github.com/nat64lab/dns64ng/internal/helpers"
	"github.com/nat64lab/dns64ng/internal/logging"
	"github.com/nat64lab/dns64ng/internal/procaffinity"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "/etc/fakedns.conf", "path to the fake-server config file")
		daemonize  = flag.Bool("daemonize", false, "detach and run in the background")
		useSyslog  = flag.Bool("syslog", false, "log to syslog instead of stderr")
		logLevel   = flag.String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
		processes  = flag.Int("processes", 0, "run N CPU-pinned child processes instead of one worker-pool process (0: single process)")
		childIndex = flag.Int("child-index", -1, "internal: this process's index within a -processes launch")
	)
	flag.Parse()

	if *daemonize && *childIndex < 0 {
		spawnedChild, err := daemon.Daemonize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fakedns64test: daemonize: %v\n", err)
			return 1
		}
		if spawnedChild {
			return 0
		}
	}

	logger := logging.Configure(logging.Config{
		Level:      *logLevel,
		Syslog:     *useSyslog,
		SyslogTag:  "fakedns64test",
		IncludePID: true,
	})

	cfg, err := config.LoadFakeServerConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		return 1
	}
	if cfg.Debug {
		logger = logging.Configure(logging.Config{Level: "DEBUG", Syslog: *useSyslog, SyslogTag: "fakedns64test", IncludePID: true})
	}

	if *childIndex >= 0 {
		return runChild(logger, cfg, *childIndex)
	}

	if *processes > 0 {
		return runMultiProcess(logger, cfg, *processes)
	}

	return runSingleProcess(logger, cfg)
}

// runSingleProcess is the default topology: one process, cfg.NumServers
// worker goroutines sharing SO_REUSEADDR'd sockets on a single port.
func runSingleProcess(logger *slog.Logger, cfg config.FakeServerConfig) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := net.JoinHostPort("::", strconv.Itoa(int(cfg.StartPort)))
	srv := &fakedns.Server{
		Handler: &fakedns.Handler{
			Mode:        cfg.AAAAMode,
			Probability: cfg.AAAAProbability,
		},
		NumWorkers: cfg.NumServers,
	}
	logger.Info("fakedns64test starting", "addr", addr, "workers", cfg.NumServers, "mode", cfg.AAAAMode)
	if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
		logger.Error("server exited with error", "err", err)
		return 1
	}
	return 0
}

// runMultiProcess re-execs itself into n children, each pinned to a
// distinct CPU and listening on its own port, per the alternative
// CPU-affinity topology.
func runMultiProcess(logger *slog.Logger, cfg config.FakeServerConfig, n int) int {
	exe, err := os.Executable()
	if err != nil {
		logger.Error("failed to resolve executable path", "err", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmds := make([]*exec.Cmd, 0, n)
	for i := 0; i < n; i++ {
		args := append(append([]string{}, os.Args[1:]...), "-child-index", strconv.Itoa(i))
		c := exec.Command(exe, args...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Start(); err != nil {
			logger.Error("failed to launch child", "index", i, "err", err)
			continue
		}
		cmds = append(cmds, c)
	}
	logger.Info("fakedns64test launched children", "count", len(cmds), "start_cpu", cfg.StartCPU, "start_port", cfg.StartPort)

	<-ctx.Done()
	for _, c := range cmds {
		_ = c.Process.Signal(syscall.SIGTERM)
	}
	for _, c := range cmds {
		_ = c.Wait()
	}
	return 0
}

// runChild is one CPU-pinned child of a -processes launch: a single
// fakedns.Server worker bound to start-port+index, restricted to
// start-cpu+index.
func runChild(logger *slog.Logger, cfg config.FakeServerConfig, index int) int {
	cpu := cfg.StartCPU + index
	if err := procaffinity.Pin(cpu); err != nil {
		logger.Error("failed to pin CPU, continuing unpinned", "cpu", cpu, "err", err)
	}

	port := helpers.ClampIntToUint16(int(cfg.StartPort) + index)
	addr := net.JoinHostPort("::", strconv.Itoa(int(port)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &fakedns.Server{
		Handler: &fakedns.Handler{
			Mode:        cfg.AAAAMode,
			Probability: cfg.AAAAProbability,
		},
		NumWorkers: 1,
	}
	logger.Info("fakedns64test child starting", "addr", addr, "cpu", cpu, "index", index)
	if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
		logger.Error("child server exited with error", "err", err)
		return 1
	}
	return 0
}
