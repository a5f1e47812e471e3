// Package simulator is an in-process stand-in for the bus-controller
// device. It speaks the same line protocol, keeps the device state
// (active bus, serial number, clock, reboot counter) and can be served
// over TCP or websocket so the harness has a peer without hardware.
package simulator
