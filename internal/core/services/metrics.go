package services

// Metrics receives domain-level counters from the services. The prometheus
// collector in infrastructure implements it; tests and minimal wiring use
// the no-op default.
type Metrics interface {
	RoomCreated()
	RoomDissolved()
	ParticipantJoined()
	ParticipantLeft()
	JoinRejected(reason string)
	MessagePosted()
}

type nopMetrics struct{}

func (nopMetrics) RoomCreated()        {}
func (nopMetrics) RoomDissolved()      {}
func (nopMetrics) ParticipantJoined()  {}
func (nopMetrics) ParticipantLeft()    {}
func (nopMetrics) JoinRejected(string) {}
func (nopMetrics) MessagePosted()      {}
