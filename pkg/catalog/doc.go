// Package catalog describes the bus-controller device: its command and
// telemetry identifiers, enumerations, records and command descriptors.
//
// Device wraps a device.Handle and exposes one method per command:
//
//	dev, err := catalog.Open(ctx, 0x12, "localhost:9090", transport.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
//	rc, err := dev.SetActiveBus(ctx, catalog.BusReserve)
//	bus, err := dev.GetTM(ctx, catalog.TmActiveBus)
//
// Telemetry replies are materialized through NewRegistry. The consumption
// shape is intentionally absent, so GetTM(TmConsumption) yields the raw
// *wire.Response envelope.
package catalog
