package catalog

import "fmt"

// ParseActiveBus accepts "main", "reserve" or their numeric values.
func ParseActiveBus(s string) (ActiveBus, error) {
	v, err := parseEnum(s, busNames)
	if err != nil {
		return 0, fmt.Errorf("bus %w", err)
	}
	return v, nil
}

// IsSuccess returns true if the code indicates success.
func (r ResultCode) IsSuccess() bool {
	return r == ResultOK
}

// ParseResultCode accepts a result code name or number.
func ParseResultCode(s string) (ResultCode, error) {
	v, err := parseEnum(s, resultNames)
	if err != nil {
		return 0, fmt.Errorf("result code %w", err)
	}
	return v, nil
}
