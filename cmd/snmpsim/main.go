package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/distribution"
	"github.com/debashish-mukherjee/go-snmpsim/internal/listener"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pipeline"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pool"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	fleetConfigPath := flag.String("fleet-config", "", "Path to a fleet YAML config (port_ranges, walk_files, pool knobs)")
	mixName := flag.String("mix", "small_test", "Predefined device mix to use when -fleet-config is not given")
	portStart := flag.Int("port-start", 20000, "Starting port for the predefined mix")
	devices := flag.Int("devices", 100, "Number of virtual devices to simulate for the predefined mix")
	community := flag.String("community", "public", "SNMP community string every device answers to")
	maxDevices := flag.Int("max-devices", 0, "Maximum simultaneously instantiated devices (0 = unbounded)")
	idleTimeout := flag.Duration("idle-timeout", 15*time.Minute, "Evict a device after this long without a request")
	statsCron := flag.String("stats-cron", "", "Cron spec for a periodic pool stats log line (empty disables it)")
	metricsAddr := flag.String("metrics-addr", ":9116", "Address to serve Prometheus metrics on (empty disables it)")
	flag.Parse()

	cfg, assignment, err := loadFleet(*fleetConfigPath, *mixName, *portStart, *devices, *community, *maxDevices, *idleTimeout, *statsCron)
	if err != nil {
		log.Fatalf("snmpsim: %v", err)
	}

	checkFileDescriptors(len(portsOf(assignment))) // bindListeners opens one socket per port

	store := mibstore.New()
	for _, dt := range assignment.DeviceTypes() {
		if err := loadWalkFile(store, dt, cfg.WalkFiles[dt]); err != nil {
			log.Fatalf("snmpsim: %v", err)
		}
		if cfg.ReloadCron != "" {
			path := cfg.WalkFiles[dt]
			if err := store.ScheduleReload(dt, cfg.ReloadCron, func() ([]mibstore.Entry, error) {
				return buildEntriesFromFile(path)
			}); err != nil {
				log.Fatalf("snmpsim: schedule reload for %s: %v", dt, err)
			}
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := pool.New(assignment, store, cfg.Community, cfg.MaxDevices, time.Duration(cfg.IdleTimeoutSeconds)*time.Second, m, time.Now)

	if cfg.StatsCron != "" {
		if err := p.ScheduleStatsSnapshot(cfg.StatsCron); err != nil {
			log.Fatalf("snmpsim: schedule stats snapshot: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Prewarm {
		distribution.WarmUp(assignment, func(port int) error {
			_, err := p.GetOrCreate(port)
			return err
		}, 100)
	}

	go p.RunIdleSweep(ctx, 30*time.Second)

	var srv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			log.Printf("snmpsim: metrics listening on %s", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("snmpsim: metrics server error: %v", err)
			}
		}()
	}

	listeners, err := bindListeners(assignment, p, m)
	if err != nil {
		log.Fatalf("snmpsim: %v", err)
	}
	for _, l := range listeners {
		go l.Serve(ctx)
	}
	log.Printf("snmpsim: serving %d device type(s) across %d port(s)", len(assignment.DeviceTypes()), len(listeners))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("snmpsim: received signal %v, shutting down", sig)

	cancel()
	for _, l := range listeners {
		_ = l.Close()
	}
	store.StopScheduledReloads()
	p.StopScheduledSnapshots()
	p.ShutdownAll()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Printf("snmpsim: shutdown complete")
}

// loadFleet resolves a FleetConfig either from a YAML file (preferred)
// or from the predefined-mix flags, and returns the PortAssignment
// derived from it.
func loadFleet(fleetConfigPath, mixName string, portStart, devices int, community string, maxDevices int, idleTimeout time.Duration, statsCron string) (*distribution.FleetConfig, *distribution.PortAssignment, error) {
	if fleetConfigPath != "" {
		cfg, err := distribution.LoadFleetConfig(fleetConfigPath)
		if err != nil {
			return nil, nil, err
		}
		assignment, err := cfg.PortAssignment()
		if err != nil {
			return nil, nil, fmt.Errorf("fleet config: %w", err)
		}
		return cfg, assignment, nil
	}

	assignment, err := distribution.BuildMix(mixName, portStart, devices)
	if err != nil {
		return nil, nil, err
	}
	walkFiles := make(map[string]string)
	for _, dt := range assignment.DeviceTypes() {
		walkFiles[dt] = filepath.Join("profiles", dt+".snmprec")
	}
	cfg := &distribution.FleetConfig{
		ListenAddress:      "0.0.0.0",
		Community:          community,
		MaxDevices:         maxDevices,
		IdleTimeoutSeconds: int(idleTimeout.Seconds()),
		Prewarm:            true,
		StatsCron:          statsCron,
		WalkFiles:          walkFiles,
	}
	return cfg, assignment, nil
}

func loadWalkFile(store *mibstore.Store, deviceType, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("snmpsim: no walk file for %s at %s, using built-in profile", deviceType, path)
		return store.Load(deviceType, profile.DefaultEntries(deviceType))
	}
	if err != nil {
		return fmt.Errorf("open walk file for %s: %w", deviceType, err)
	}
	defer f.Close()
	return profile.LoadInto(store, deviceType, bufio.NewScanner(f))
}

func buildEntriesFromFile(path string) ([]mibstore.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, skipped := profile.ParseWalkFile(bufio.NewScanner(f))
	if skipped > 0 {
		log.Printf("snmpsim: %d malformed line(s) skipped reloading %s", skipped, path)
	}
	return profile.BuildEntries(records), nil
}

// bindListeners opens one UDP socket per port the assignment covers,
// each resolving its agent lazily through the pool.
func bindListeners(assignment *distribution.PortAssignment, p *pool.Pool, m *metrics.Metrics) ([]*listener.Listener, error) {
	agentFor := func(port int) (pipeline.Agent, string, error) {
		a, err := p.GetOrCreate(port)
		if err != nil {
			return nil, "", err
		}
		return a, a.Community, nil
	}

	var out []*listener.Listener
	for _, port := range portsOf(assignment) {
		l, err := listener.Bind(port, agentFor, time.Now, m)
		if err != nil {
			for _, already := range out {
				_ = already.Close()
			}
			return nil, err
		}
		l.OnCrash(func(port int) {
			log.Printf("snmpsim: removing crashed device port=%d", port)
			p.Shutdown(port)
		})
		out = append(out, l)
	}
	return out, nil
}

func portsOf(assignment *distribution.PortAssignment) []int {
	var ports []int
	for _, r := range assignment.Ranges() {
		for port := r.Low; port < r.High; port++ {
			ports = append(ports, port)
		}
	}
	return ports
}

func checkFileDescriptors(requiredFDs int) {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Printf("snmpsim: could not check file descriptor limit: %v", err)
		return
	}
	required := uint64(requiredFDs) + 100
	if rlimit.Cur < required {
		log.Printf("snmpsim: file descriptor limit (%d) may be insufficient for %d ports (~%d needed); raise with ulimit -n", rlimit.Cur, requiredFDs, required)
	}
}
