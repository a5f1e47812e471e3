package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser publishes a device over mDNS.
type Advertiser struct {
	iface string
	ttl   time.Duration

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser. An empty iface means every
// interface; ttl zero keeps the library default.
func NewAdvertiser(iface string, ttl time.Duration) *Advertiser {
	return &Advertiser{iface: iface, ttl: ttl}
}

// Advertise registers info, replacing any previous registration.
func (a *Advertiser) Advertise(ctx context.Context, info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	instance := InstanceName(&info)
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}
	port := info.Port
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.ttl > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.ttl.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeTXT(&info)),
		selectInterfaces(a.iface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", instance, err)
	}
	a.server = server
	slog.Debug("mdns advertising", "instance", instance, "port", port)

	go func() {
		<-ctx.Done()
		a.Stop()
	}()
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browse listens for devices until timeout (default 3s) or ctx ends and
// returns them sorted by instance name.
func Browse(ctx context.Context, iface string, timeout time.Duration) ([]Service, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := selectInterfaces(iface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	services := make(map[string]*Service)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			svc := entryToService(entry)
			if svc == nil {
				continue
			}
			if existing, found := services[svc.Instance]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
			} else {
				services[svc.Instance] = svc
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(services, entry.Instance)

		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("browse: %w", err)
			}
			return collect(services), nil

		case <-ctx.Done():
			return collect(services), nil
		}
	}
}

func collect(services map[string]*Service) []Service {
	out := make([]Service, 0, len(services))
	for _, s := range services {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Service) int {
		switch {
		case a.Instance < b.Instance:
			return -1
		case a.Instance > b.Instance:
			return 1
		}
		return 0
	})
	return out
}

// entryToService converts a zeroconf entry. Entries without a valid
// device id are ignored.
func entryToService(entry *zeroconf.ServiceEntry) *Service {
	info, err := DecodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Service{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
		DeviceID:  info.DeviceID,
		Version:   info.Version,
		Serial:    info.Serial,
	}
}

func mergeAddresses(a, b []string) []string {
	for _, addr := range b {
		if !slices.Contains(a, addr) {
			a = append(a, addr)
		}
	}
	return a
}

// selectInterfaces returns nil (all interfaces) when name is empty or unknown.
func selectInterfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
