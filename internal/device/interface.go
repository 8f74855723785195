package device

// Channel names a discovery channel, which is also how a model is reached.
type Channel string

const (
	ChannelSerial Channel = "serial"
	ChannelBLE    Channel = "ble"
	ChannelRFCOMM Channel = "rfcomm"
)

// Model describes a supported meter.
type Model struct {
	Name    string
	Channel Channel
}

// Metric describes one graphable quantity.
type Metric struct {
	Name  string
	Label string
	Unit  string
}
