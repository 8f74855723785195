package device

import (
	"strings"

	"codeberg.org/mutker/meterdash/internal/errors"
)

var models = []Model{
	{Name: "UM24C", Channel: ChannelRFCOMM},
	{Name: "UM25C", Channel: ChannelRFCOMM},
	{Name: "UM34C", Channel: ChannelRFCOMM},
	{Name: "UM24C Serial", Channel: ChannelSerial},
	{Name: "UM25C Serial", Channel: ChannelSerial},
	{Name: "UM34C Serial", Channel: ChannelSerial},
	{Name: "TC66C", Channel: ChannelBLE},
	{Name: "TC66C USB", Channel: ChannelSerial},
}

var metrics = []Metric{
	{Name: "voltage", Label: "Voltage", Unit: "V"},
	{Name: "current", Label: "Current", Unit: "A"},
	{Name: "power", Label: "Power", Unit: "W"},
	{Name: "temperature", Label: "Temperature", Unit: "°C"},
	{Name: "resistance", Label: "Resistance", Unit: "Ω"},
	{Name: "accumulated_current", Label: "Accumulated current", Unit: "mAh"},
	{Name: "accumulated_power", Label: "Accumulated power", Unit: "mWh"},
}

// TableFields is the column order of a sample's table row.
var TableFields = []string{
	"Time", "Voltage", "Current", "Power", "Temperature", "Data", "Mode", "Accumulated", "Resistance",
}

// Models returns the supported meters.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Lookup finds a model by name, case-insensitively.
func Lookup(name string) (Model, error) {
	for _, m := range models {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, nil
		}
	}

	return Model{}, errors.New().WithData(ErrUnknownModel, name)
}

// Metrics returns the graphable metrics in display order.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// LookupMetric finds a metric by its graph key.
func LookupMetric(name string) (Metric, error) {
	for _, m := range metrics {
		if m.Name == name {
			return m, nil
		}
	}

	return Metric{}, errors.New().WithData(ErrUnknownMetric, name)
}

// Label returns the display label with unit for a metric, or the bare name
// when the metric is not catalogued.
func Label(name string) string {
	m, err := LookupMetric(name)
	if err != nil {
		return name
	}

	return m.Label + " (" + m.Unit + ")"
}

// ParseChannel accepts a discovery channel name.
func ParseChannel(name string) (Channel, error) {
	switch ch := Channel(strings.ToLower(strings.TrimSpace(name))); ch {
	case ChannelSerial, ChannelBLE, ChannelRFCOMM:
		return ch, nil
	}

	return "", errors.New().WithData(ErrUnknownChannel, name)
}

// Wireless reports whether the model is reached over Bluetooth and therefore
// needs a discovered address rather than a serial port.
func (m Model) Wireless() bool {
	return m.Channel == ChannelBLE || m.Channel == ChannelRFCOMM
}

// CheckAddress mirrors the backend's refusal to connect a Bluetooth model
// without an address.
func (m Model) CheckAddress(address string) error {
	if !m.Wireless() || strings.TrimSpace(address) != "" {
		return nil
	}

	msg := "Bluetooth address is missing. Select address in Setup"
	if m.Channel == ChannelBLE {
		msg = "BLE address is missing. Select address in Setup"
	}

	return errors.New().WithMessage(ErrAddressRequired, msg)
}
