package catalog

import "github.com/linectl/linectl-go/pkg/device"

// Response type tags produced by the device.
const (
	TagActiveBus         = "ActiveBus"
	TagResultCode        = "ResultCode"
	TagTmID              = "TmId"
	TagCmdID             = "CmdId"
	TagVersion           = "Version"
	TagOperatingTimeInfo = "OperatingTimeInfo"
	TagConsumption       = "consumption"
)

// NewRegistry returns a registry with the built-in aliases and every
// catalog shape. TagConsumption is not registered.
func NewRegistry() *device.Registry {
	r := device.NewRegistry()
	r.Register(TagActiveBus, device.EnumConstructor("ActiveBus", ActiveBus.Valid))
	r.Register(TagResultCode, device.EnumConstructor("ResultCode", ResultCode.Valid))
	r.Register(TagTmID, device.EnumConstructor("TmId", TmID.Valid))
	r.Register(TagCmdID, device.EnumConstructor("CmdId", CmdID.Valid))
	r.Register(TagVersion, versionConstructor)
	r.Register(TagOperatingTimeInfo, operatingTimeConstructor)
	return r
}
