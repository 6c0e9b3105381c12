package dcm

// Device defines the interface for motor controllers (real or mocked).
// Devices are single use: Events closes on Close and a later Connect returns
// ErrClosed, so reconnecting needs a new instance.
type Device interface {
	Connect() error
	Close() error
	Events() <-chan Event
	SetSpeed(percent int) error
	Stop() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
