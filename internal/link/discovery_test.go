package link

import (
	"encoding/json"
	"testing"

	"codeberg.org/mutker/meterdash/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanResult(payload string) Event {
	data, _ := json.Marshal(payload)
	return Event{Name: EventScanResult, Data: data}
}

func TestParseDiscovery(t *testing.T) {
	payload := "Results:\n" +
		`<a href="#" data-address="00:15:A3:00:55:0F">00:15:A3:00:55:0F (UM34C)</a>` + "\n" +
		`<a href="#" data-address="/dev/ttyUSB0">/dev/ttyUSB0 - CP2102 &amp; co</a>`

	result := ParseDiscovery(device.ChannelRFCOMM, payload)
	assert.False(t, result.Failed)
	require.Len(t, result.Devices, 2)
	assert.Equal(t, Candidate{Address: "00:15:A3:00:55:0F", Name: "00:15:A3:00:55:0F (UM34C)"}, result.Devices[0])
	assert.Equal(t, "/dev/ttyUSB0 - CP2102 & co", result.Devices[1].Name)
}

func TestParseDiscoveryEmpty(t *testing.T) {
	result := ParseDiscovery(device.ChannelBLE, "Results:\nno device found, try again")
	assert.False(t, result.Failed)
	assert.NotNil(t, result.Devices)
	assert.Empty(t, result.Devices)
}

func TestParseDiscoveryFailure(t *testing.T) {
	result := ParseDiscovery(device.ChannelBLE, "Traceback (most recent call last):\n  ...")
	assert.True(t, result.Failed)
	assert.Empty(t, result.Devices)
}

func TestDiscoveryAttribution(t *testing.T) {
	c, transport, rec := newTestController()

	require.NoError(t, c.RequestDiscovery(device.ChannelSerial))
	require.NoError(t, c.RequestDiscovery(device.ChannelBLE))
	assert.True(t, c.Scanning(device.ChannelSerial))
	assert.Equal(t, []string{"scan_serial", "scan_ble"}, transport.names())

	c.Handle(scanResult("Results:\n" + `<a href="#" data-address="COM3">COM3</a>`))
	c.Handle(scanResult("Results:\nno device found, try again"))

	require.Len(t, rec.discoveries, 2)
	assert.Equal(t, device.ChannelSerial, rec.discoveries[0].Channel)
	assert.Equal(t, device.ChannelBLE, rec.discoveries[1].Channel)
	assert.False(t, c.Scanning(device.ChannelSerial))
	assert.False(t, c.Scanning(device.ChannelBLE))

	serial, ok := c.Discovery(device.ChannelSerial)
	require.True(t, ok)
	assert.Len(t, serial.Devices, 1)

	latest, ok := c.LatestDiscovery()
	require.True(t, ok)
	assert.Equal(t, device.ChannelBLE, latest.Channel)
}

func TestDiscoveryRestart(t *testing.T) {
	c, transport, rec := newTestController()

	require.NoError(t, c.RequestDiscovery(device.ChannelSerial))
	require.NoError(t, c.RequestDiscovery(device.ChannelRFCOMM))
	require.NoError(t, c.RequestDiscovery(device.ChannelSerial))
	assert.Len(t, transport.sent, 3)

	c.Handle(scanResult("Results:"))
	require.Len(t, rec.discoveries, 1)
	assert.Equal(t, device.ChannelRFCOMM, rec.discoveries[0].Channel)
	assert.True(t, c.Scanning(device.ChannelSerial))
}

func TestDiscoveryUnknownChannel(t *testing.T) {
	c, transport, _ := newTestController()

	assert.Error(t, c.RequestDiscovery(device.Channel("usb")))
	assert.Empty(t, transport.sent)
}

func TestUnsolicitedScanResult(t *testing.T) {
	c, _, rec := newTestController()

	c.Handle(scanResult("Results:"))
	require.Len(t, rec.discoveries, 1)
	assert.Equal(t, device.Channel(""), rec.discoveries[0].Channel)
}
