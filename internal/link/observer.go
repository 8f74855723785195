package link

import "codeberg.org/mutker/meterdash/internal/meter"

// Observer receives controller notifications. All methods are called on the
// goroutine that drives the controller.
type Observer interface {
	OnStateChange(state State)
	OnSample(sample meter.Sample)
	OnFirstSample(sample meter.Sample)
	OnFatal(reason error)
	OnDiscovery(result Discovery)
	OnLog(line string)
}

// Funcs adapts optional functions to an Observer. Nil fields are skipped.
type Funcs struct {
	StateChange func(State)
	Sample      func(meter.Sample)
	FirstSample func(meter.Sample)
	Fatal       func(error)
	Discovery   func(Discovery)
	Log         func(string)
}

func (f Funcs) OnStateChange(state State) {
	if f.StateChange != nil {
		f.StateChange(state)
	}
}

func (f Funcs) OnSample(sample meter.Sample) {
	if f.Sample != nil {
		f.Sample(sample)
	}
}

func (f Funcs) OnFirstSample(sample meter.Sample) {
	if f.FirstSample != nil {
		f.FirstSample(sample)
	}
}

func (f Funcs) OnFatal(reason error) {
	if f.Fatal != nil {
		f.Fatal(reason)
	}
}

func (f Funcs) OnDiscovery(result Discovery) {
	if f.Discovery != nil {
		f.Discovery(result)
	}
}

func (f Funcs) OnLog(line string) {
	if f.Log != nil {
		f.Log(line)
	}
}
