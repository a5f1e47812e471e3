package catalog

import (
	"fmt"

	"github.com/linectl/linectl-go/pkg/device"
)

// Version is the firmware version reported by TmVersion.
type Version struct {
	Major int64 `json:"major" yaml:"major"`
	Minor int64 `json:"minor" yaml:"minor"`
	Patch int64 `json:"patch" yaml:"patch"`
	Build int64 `json:"build" yaml:"build"`
}

// String returns "major.minor.patch.build".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

// OperatingTimeInfo is reported by TmOperatingTime.
type OperatingTimeInfo struct {
	// RebootCount is the number of restarts.
	RebootCount int64 `json:"reboot_count" yaml:"reboot_count"`

	// OperatingTime is the time since the last power-up, in seconds.
	OperatingTime float64 `json:"operating_time" yaml:"operating_time"`

	// TotalTime is the accumulated running time, in seconds.
	TotalTime float64 `json:"total_time" yaml:"total_time"`
}

var (
	versionConstructor = device.RecordConstructor(func(f *device.Fields) Version {
		return Version{
			Major: f.Int("major"),
			Minor: f.Int("minor"),
			Patch: f.Int("patch"),
			Build: f.Int("build"),
		}
	})

	operatingTimeConstructor = device.RecordConstructor(func(f *device.Fields) OperatingTimeInfo {
		return OperatingTimeInfo{
			RebootCount:   f.Int("reboot_count"),
			OperatingTime: f.Float("operating_time"),
			TotalTime:     f.Float("total_time"),
		}
	})
)
