package core

// Frame is a raw encoded payload.
type Frame []byte

// SignalConnection abstracts a client messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
