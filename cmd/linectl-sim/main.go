// Command linectl-sim runs a simulated linectl device.
//
// The simulator answers the line protocol on TCP (and optionally on a
// websocket endpoint) with the same command catalog as a real device, so
// linectl-test and linectl can be exercised without hardware.
//
// Usage:
//
//	linectl-sim [flags]
//
// Flags:
//
//	-port int             Listen port (default 9090)
//	-ws string            Websocket listen address, e.g. :9091 (disabled if empty)
//	-id string            Advertised device id (default 0x12)
//	-serial string        Initial serial number (default "SN-0000")
//	-version string       Firmware version major.minor.patch.build (default "1.2.0.7")
//	-temperature float    Mean reported temperature (default 25)
//	-consumption int      Reported consumption (default 5)
//	-lock-serial          Refuse set_serial with PermissionDenied
//	-mdns                 Advertise the simulator via mDNS
//	-iface string         Network interface for mDNS (default: all)
//	-interactive          Start the operator console
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File path for protocol event logging (CBOR format)
//
// Examples:
//
//	# Start a simulator for linectl-test
//	linectl-sim -port 9090
//
//	# Advertise on the LAN and drive it from the console
//	linectl-sim -mdns -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/linectl/linectl-go/cmd/linectl-sim/console"
	"github.com/linectl/linectl-go/internal/config"
	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/discovery"
	linelog "github.com/linectl/linectl-go/pkg/log"
	"github.com/linectl/linectl-go/pkg/simulator"
)

// Config holds the simulator command configuration.
type Config struct {
	Port        int
	WSAddress   string
	DeviceID    string
	Serial      string
	Version     string
	Temperature float64
	Consumption int64
	LockSerial  bool
	MDNS        bool
	Interface   string
	Interactive bool
	LogLevel    string
	ProtocolLog string
}

var cfg Config

func init() {
	flag.IntVar(&cfg.Port, "port", discovery.DefaultPort, "Listen port")
	flag.StringVar(&cfg.WSAddress, "ws", "", "Websocket listen address, e.g. :9091 (disabled if empty)")
	flag.StringVar(&cfg.DeviceID, "id", "0x12", "Advertised device id")
	flag.StringVar(&cfg.Serial, "serial", "SN-0000", "Initial serial number")
	flag.StringVar(&cfg.Version, "version", "1.2.0.7", "Firmware version major.minor.patch.build")
	flag.Float64Var(&cfg.Temperature, "temperature", 25, "Mean reported temperature")
	flag.Int64Var(&cfg.Consumption, "consumption", 5, "Reported consumption")
	flag.BoolVar(&cfg.LockSerial, "lock-serial", false, "Refuse set_serial with PermissionDenied")
	flag.BoolVar(&cfg.MDNS, "mdns", false, "Advertise the simulator via mDNS")
	flag.StringVar(&cfg.Interface, "iface", "", "Network interface for mDNS (default: all)")
	flag.BoolVar(&cfg.Interactive, "interactive", false, "Start the operator console")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.ProtocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	level, err := config.Log{Level: cfg.LogLevel}.SlogLevel()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	id, err := strconv.ParseUint(cfg.DeviceID, 0, 64)
	if err != nil {
		log.Fatalf("Invalid configuration: -id %q: %v", cfg.DeviceID, err)
	}
	version, err := parseVersion(cfg.Version)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("linectl Device Simulator")
	log.Println("========================")
	log.Printf("Device id: 0x%x", id)
	log.Printf("Port: %d", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var protocolLogger linelog.Logger
	if cfg.ProtocolLog != "" {
		fl, err := linelog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol logger: %v", err)
		}
		defer fl.Close()
		protocolLogger = fl
		log.Printf("Protocol logging to: %s", cfg.ProtocolLog)
	}

	logger := slog.New(slog.NewTextHandler(stdWriter{}, &slog.HandlerOptions{Level: level}))

	sim := simulator.New(simulator.Config{
		Logger:       logger,
		Serial:       cfg.Serial,
		Version:      version,
		Temperature:  cfg.Temperature,
		Consumption:  cfg.Consumption,
		SerialLocked: cfg.LockSerial,
	})

	var con *console.Console
	opts := simulator.ServeOptions{
		Address: fmt.Sprintf(":%d", cfg.Port),
		Logger:  protocolLogger,
	}
	if cfg.Interactive {
		con, err = console.New(sim, func() console.Status { return console.StatusOf(sim) })
		if err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		log.SetOutput(con.Stdout())
		opts.OnConnect = con.OnConnect
		opts.OnDisconnect = con.OnDisconnect
	}

	srv, err := sim.Serve(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to start simulator: %v", err)
	}

	var wsServer *http.Server
	if cfg.WSAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/", sim.WebSocketHandler(protocolLogger))
		wsServer = &http.Server{Addr: cfg.WSAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Websocket server stopped: %v", err)
			}
		}()
		log.Printf("Websocket endpoint: ws://%s/", cfg.WSAddress)
	}

	var adv *discovery.Advertiser
	if cfg.MDNS {
		adv = discovery.NewAdvertiser(cfg.Interface, 0)
		info := discovery.Info{DeviceID: id, Port: cfg.Port, Version: version.String(), Serial: cfg.Serial}
		if err := adv.Advertise(ctx, info); err != nil {
			log.Printf("Warning: mDNS advertisement failed: %v", err)
			adv = nil
		} else {
			log.Printf("Advertising %s as %s", discovery.ServiceType, discovery.InstanceName(&info))
		}
	}

	if con != nil {
		con.Run(ctx, cancel)
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down...")
	if adv != nil {
		adv.Stop()
	}
	if wsServer != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		_ = wsServer.Shutdown(shutdownCtx)
		done()
	}
	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping simulator: %v", err)
	}
	log.Println("Goodbye!")
}

// stdWriter forwards to the standard logger's current output, which the
// console redirects once readline owns the terminal.
type stdWriter struct{}

func (stdWriter) Write(p []byte) (int, error) {
	return log.Writer().Write(p)
}

// parseVersion parses "major.minor.patch.build".
func parseVersion(s string) (catalog.Version, error) {
	var v catalog.Version
	n, err := fmt.Sscanf(s, "%d.%d.%d.%d", &v.Major, &v.Minor, &v.Patch, &v.Build)
	if err != nil || n != 4 {
		return v, fmt.Errorf("version %q is not major.minor.patch.build", s)
	}
	return v, nil
}
