package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for info.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyDeviceID: fmt.Sprintf("0x%x", info.DeviceID),
	}
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	if info.Serial != "" {
		txt[TXTKeySerial] = info.Serial
	}
	return txt
}

// DecodeTXT parses TXT records into an Info. Port and Instance are left
// for the caller.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	idStr, ok := txt[TXTKeyDeviceID]
	if !ok || idStr == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDeviceID)
	}
	id, err := strconv.ParseUint(idStr, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: device id %q", ErrInvalidTXTRecord, idStr)
	}
	return &Info{
		DeviceID: id,
		Version:  txt[TXTKeyVersion],
		Serial:   txt[TXTKeySerial],
	}, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if k == "" {
			continue
		}
		if !found {
			v = ""
		}
		txt[k] = v
	}
	return txt
}

// InstanceName returns info.Instance or the default name for the device.
func InstanceName(info *Info) string {
	if info.Instance != "" {
		return info.Instance
	}
	return fmt.Sprintf("linectl-%x", info.DeviceID)
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return ErrEmptyInstanceName
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
