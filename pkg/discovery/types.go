package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service identification.
const (
	ServiceType = "_linectl._tcp"
	Domain      = "local"

	// DefaultPort matches the transport default.
	DefaultPort = 9090

	// MaxInstanceNameLen is the DNS-SD instance label limit.
	MaxInstanceNameLen = 63

	// DefaultBrowseTimeout bounds Browse when the caller passes zero.
	DefaultBrowseTimeout = 3 * time.Second
)

// TXT record keys.
const (
	TXTKeyDeviceID = "id"
	TXTKeyVersion  = "ver"
	TXTKeySerial   = "sn"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrEmptyInstanceName   = errors.New("empty instance name")
)

// Info is what a device advertises.
type Info struct {
	// Instance is the DNS-SD instance name (default "linectl-<id>").
	Instance string

	// DeviceID is the numeric device id.
	DeviceID uint64

	// Port is the TCP port (default 9090).
	Port int

	// Version is the firmware version string.
	Version string

	// Serial is the serial number.
	Serial string
}

// Service is a discovered device.
type Service struct {
	Instance  string
	Host      string
	Port      int
	Addresses []string
	DeviceID  uint64
	Version   string
	Serial    string
}

// Endpoint returns a dialable host:port, preferring the first address.
func (s *Service) Endpoint() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
