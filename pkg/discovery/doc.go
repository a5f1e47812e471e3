// Package discovery advertises and finds line-protocol devices over mDNS.
//
// Devices (and the simulator) register an instance of service type
// "_linectl._tcp" in the "local" domain. TXT records carry:
//
//	id   device id, hex with 0x prefix (required)
//	ver  firmware version, major.minor.patch.build (optional)
//	sn   serial number (optional)
//
// Browse collects announcements for a bounded time and returns one
// Service per instance, with addresses from every interface merged.
package discovery
