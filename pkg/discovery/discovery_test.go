package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTRoundTrip(t *testing.T) {
	info := &Info{DeviceID: 0x12, Version: "1.2.0.7", Serial: "SN-0000"}
	txt := EncodeTXT(info)
	assert.Equal(t, "0x12", txt[TXTKeyDeviceID])

	strs := TXTRecordsToStrings(txt)
	assert.Equal(t, []string{"id=0x12", "sn=SN-0000", "ver=1.2.0.7"}, strs)

	decoded, err := DecodeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestEncodeTXTOmitsEmptyOptionals(t *testing.T) {
	txt := EncodeTXT(&Info{DeviceID: 1})
	assert.Len(t, txt, 1)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		err  error
	}{
		{"missing id", TXTRecordMap{"ver": "1"}, ErrMissingRequired},
		{"empty id", TXTRecordMap{"id": ""}, ErrMissingRequired},
		{"bad id", TXTRecordMap{"id": "zz"}, ErrInvalidTXTRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTXT(tt.txt)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", "=skip"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "linectl-12", InstanceName(&Info{DeviceID: 0x12}))
	assert.Equal(t, "bench-1", InstanceName(&Info{Instance: "bench-1"}))

	assert.ErrorIs(t, ValidateInstanceName(""), ErrEmptyInstanceName)
	long := make([]byte, MaxInstanceNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ValidateInstanceName(string(long)), ErrInstanceNameTooLong)
}

func TestEntryToService(t *testing.T) {
	entry := &zeroconf.ServiceEntry{}
	entry.Instance = "linectl-12"
	entry.HostName = "bench.local."
	entry.Port = 9090
	entry.Text = []string{"id=0x12", "ver=1.2.0.7"}
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}

	svc := entryToService(entry)
	require.NotNil(t, svc)
	assert.Equal(t, uint64(0x12), svc.DeviceID)
	assert.Equal(t, "1.2.0.7", svc.Version)
	assert.Equal(t, "192.168.1.20:9090", svc.Endpoint())

	entry.Text = []string{"ver=1"}
	assert.Nil(t, entryToService(entry))
}

func TestEndpointFallsBackToHost(t *testing.T) {
	svc := &Service{Host: "bench.local."}
	assert.Equal(t, "bench.local.:9090", svc.Endpoint())
}

func TestMergeAndCollect(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeAddresses([]string{"a", "b"}, []string{"b", "c"}))

	out := collect(map[string]*Service{
		"z": {Instance: "z"},
		"a": {Instance: "a"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Instance)
}
