package ports

// Metrics is the instrumentation sink for the relay core. The core calls
// it inline on the protocol path, so implementations must be cheap and
// non-blocking.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	RoomCreated()
	RoomDeleted()
	MessageRelayed(msgType string)
	RelayRejected(reason string)
	RateLimitClosed()
	RoomEvicted()
}

// NopMetrics discards all instrumentation. Useful in tests.
type NopMetrics struct{}

func (NopMetrics) ConnectionOpened()     {}
func (NopMetrics) ConnectionClosed()     {}
func (NopMetrics) RoomCreated()          {}
func (NopMetrics) RoomDeleted()          {}
func (NopMetrics) MessageRelayed(string) {}
func (NopMetrics) RelayRejected(string)  {}
func (NopMetrics) RateLimitClosed()      {}
func (NopMetrics) RoomEvicted()          {}
