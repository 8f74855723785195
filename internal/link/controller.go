package link

import (
	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
)

// Transport delivers commands to the backend. Send must not block the
// caller's event loop.
type Transport interface {
	Send(cmd Command) error
}

// Controller owns the link state machine and the discovery side channel.
// It is not safe for concurrent use; one event loop drives it through Open,
// Close, RequestDiscovery and Handle.
type Controller struct {
	transport Transport
	observers []Observer
	log       logger.Logger

	state          State
	userInitiated  bool
	armed          bool
	closeRequested bool
	dropped        bool

	pending    []device.Channel
	lastScan   device.Channel
	discovered map[device.Channel]Discovery
	latest     *Discovery
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger replaces the package-level logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithObserver subscribes o at construction.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// NewController creates a controller in the Idle state.
func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport:  transport,
		log:        logger.Get(),
		state:      Idle,
		discovered: make(map[device.Channel]Discovery),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Subscribe adds an observer. Observers are notified in subscription order.
func (c *Controller) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// LastDisconnectDropped reports whether the most recent disconnect was
// an abrupt drop rather than a requested close.
func (c *Controller) LastDisconnectDropped() bool {
	return c.dropped
}

// Open requests a user-initiated connection. It is ignored unless the link
// is Idle or Disconnected.
func (c *Controller) Open(p Params) error {
	errFactory := errors.New()

	if !c.state.CanOpen() {
		c.log.Debug().Str("state", c.state.String()).Msg("Ignoring open request")
		return nil
	}
	if p.Device == "" {
		return errFactory.WithMessage(ErrInvalidParams, "device model is required")
	}
	if err := c.send(Command{Name: CommandOpen, Data: p}); err != nil {
		return err
	}

	c.userInitiated = true
	c.closeRequested = false
	c.transition(Connecting)

	return nil
}

// Close requests a graceful teardown. It is a no-op unless Connecting or
// Connected.
func (c *Controller) Close() error {
	if !c.state.CanClose() {
		c.log.Debug().Str("state", c.state.String()).Msg("Ignoring close request")
		return nil
	}
	if err := c.send(Command{Name: CommandClose}); err != nil {
		return err
	}

	c.closeRequested = true
	c.beginDisconnect()

	return nil
}

// RequestDiscovery starts a scan on ch. Issuing it again while a scan on ch
// is pending restarts that scan.
func (c *Controller) RequestDiscovery(ch device.Channel) error {
	if _, err := device.ParseChannel(string(ch)); err != nil {
		return err
	}
	if err := c.send(ScanCommand(ch)); err != nil {
		return err
	}

	c.removePending(ch)
	c.pending = append(c.pending, ch)
	c.lastScan = ch

	return nil
}

// Scanning reports whether a scan on ch awaits its result.
func (c *Controller) Scanning(ch device.Channel) bool {
	for _, p := range c.pending {
		if p == ch {
			return true
		}
	}

	return false
}

// Discovery returns the last result received for ch.
func (c *Controller) Discovery(ch device.Channel) (Discovery, bool) {
	d, ok := c.discovered[ch]
	return d, ok
}

// LatestDiscovery returns the most recent result on any channel.
func (c *Controller) LatestDiscovery() (Discovery, bool) {
	if c.latest == nil {
		return Discovery{}, false
	}

	return *c.latest, true
}

// Handle applies one inbound event.
func (c *Controller) Handle(ev Event) {
	switch ev.Name {
	case EventConnecting:
		if c.state == Connecting {
			return
		}
		if c.state.CanOpen() {
			c.userInitiated = false
			c.closeRequested = false
			c.transition(Connecting)
		}

	case EventConnected:
		if c.state.CanOpen() {
			c.userInitiated = false
			c.closeRequested = false
			c.transition(Connecting)
		}
		c.transition(Connected)

	case EventDisconnecting:
		c.beginDisconnect()

	case EventDisconnected:
		c.finishDisconnect()

	case EventTransportClosed:
		c.pending = nil
		c.finishDisconnect()

	case EventUpdate:
		c.handleUpdate(ev)

	case EventLog:
		line := ev.Text()
		for _, o := range c.observers {
			o.OnLog(line)
		}

	case EventLogError:
		c.fatal(errors.New().WithMessage(ErrDeviceFatal, "device reported a fatal error"))

	case EventScanResult:
		c.handleScanResult(ev.Text())

	default:
		c.log.Debug().Str("event", ev.Name).Msg("Ignoring unknown event")
	}
}

func (c *Controller) handleUpdate(ev Event) {
	if c.state != Connected {
		c.log.Debug().Str("state", c.state.String()).Msg("Dropping sample outside a connected session")
		return
	}

	sample, err := meter.Decode(ev.Data)
	if err != nil {
		c.fatal(errors.New().Wrap(ErrDecodeFailed, err).WithMessage("undecodable sample"))
		return
	}

	for _, o := range c.observers {
		o.OnSample(sample)
	}

	if c.armed {
		c.armed = false
		for _, o := range c.observers {
			o.OnFirstSample(sample)
		}
	}
}

func (c *Controller) handleScanResult(payload string) {
	ch := c.lastScan
	if len(c.pending) > 0 {
		ch = c.pending[0]
		c.pending = c.pending[1:]
	}

	result := ParseDiscovery(ch, payload)
	c.discovered[ch] = result
	c.latest = &result

	c.log.Debug().
		Str("channel", string(ch)).
		Int("devices", len(result.Devices)).
		Bool("failed", result.Failed).
		Msg("Discovery result")

	for _, o := range c.observers {
		o.OnDiscovery(result)
	}
}

func (c *Controller) beginDisconnect() {
	if c.state != Connecting && c.state != Connected {
		return
	}

	c.dropped = !c.closeRequested
	c.transition(Disconnecting)
}

func (c *Controller) finishDisconnect() {
	c.beginDisconnect()
	if c.state != Disconnecting {
		return
	}

	c.transition(Disconnected)
	c.closeRequested = false
	c.userInitiated = false
}

func (c *Controller) fatal(reason error) {
	c.log.Warn().Err(reason).Msg("Session is unusable")
	for _, o := range c.observers {
		o.OnFatal(reason)
	}
}

func (c *Controller) transition(to State) bool {
	from := c.state
	if !from.CanTransition(to) {
		c.log.Debug().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Rejected state transition")
		return false
	}

	c.state = to
	switch {
	case to == Connected:
		c.armed = c.userInitiated
	case from == Connected:
		c.armed = false
	}

	c.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Link state changed")

	for _, o := range c.observers {
		o.OnStateChange(to)
	}

	return true
}

func (c *Controller) send(cmd Command) error {
	errFactory := errors.New()

	if c.transport == nil {
		return errFactory.WithMessage(ErrNoTransport, "no transport attached")
	}
	if err := c.transport.Send(cmd); err != nil {
		return errFactory.Wrap(ErrSendFailed, err).WithMessage("failed to send " + cmd.Name)
	}

	return nil
}

func (c *Controller) removePending(ch device.Channel) {
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p != ch {
			kept = append(kept, p)
		}
	}
	c.pending = kept
}
