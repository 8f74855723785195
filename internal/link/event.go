package link

import (
	"encoding/json"
	"strings"

	"codeberg.org/mutker/meterdash/internal/device"
)

// Inbound event names.
const (
	EventConnecting      = "connecting"
	EventConnected       = "connected"
	EventDisconnecting   = "disconnecting"
	EventDisconnected    = "disconnected"
	EventUpdate          = "update"
	EventLog             = "log"
	EventLogError        = "log-error"
	EventScanResult      = "scan-result"
	EventTransportClosed = "transport-closed"
)

// Outbound command names.
const (
	CommandOpen  = "open"
	CommandClose = "close"
	scanPrefix   = "scan_"
)

// Event is one inbound message from the backend.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Text returns the payload as a string, unquoting it when it is a JSON
// string.
func (e Event) Text() string {
	if len(e.Data) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}

	return strings.TrimSpace(string(e.Data))
}

// Command is one outbound message to the backend.
type Command struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// ScanCommand builds the discovery command for a channel.
func ScanCommand(ch device.Channel) Command {
	return Command{Name: scanPrefix + string(ch)}
}

// Params is the open request. JSON keys follow the backend's open command;
// the address key depends on the channel the model is reached through.
type Params struct {
	Device  string
	Address string
	Rate    float64
	Session string
	Channel device.Channel
}

func (p Params) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"version": p.Device,
		"rate":    p.Rate,
		"name":    p.Session,
	}

	switch p.Channel {
	case device.ChannelRFCOMM:
		payload["rfcomm_address"] = p.Address
	case device.ChannelBLE:
		payload["ble_address"] = p.Address
	default:
		payload["port"] = p.Address
	}

	return json.Marshal(payload)
}
