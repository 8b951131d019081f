package shard

// State is the availability of a shard as published by the status endpoint.
type State string

const (
	StateOpen   State = "open"
	StateLocked State = "locked"
	StateClosed State = "closed"

	// StateUnknown is only carried by sentinel records.
	StateUnknown State = "0"
)

// Slots is the fixed number of shards in a report.
const Slots = 4

const (
	sentinelName = "a"
	atsLabel     = "Advanced"
	atsName      = "ATS"
)

// Record is one (server name, state) pair.
type Record struct {
	Name  string `json:"name"`
	State State  `json:"state"`
}

// Sentinel returns the placeholder used to pad short reports.
func Sentinel() Record {
	return Record{Name: sentinelName, State: StateUnknown}
}

func (r Record) IsSentinel() bool {
	return r == Sentinel()
}

// Report holds exactly Slots records in feed order.
type Report [Slots]Record

// NewReport returns a report filled with sentinels.
func NewReport() Report {
	var r Report
	for i := range r {
		r[i] = Sentinel()
	}
	return r
}

// Servers returns the non-sentinel records.
func (r Report) Servers() []Record {
	servers := make([]Record, 0, Slots)
	for _, rec := range r {
		if !rec.IsSentinel() {
			servers = append(servers, rec)
		}
	}
	return servers
}

// StateFromCode maps the numeric status field to a State.
func StateFromCode(code string) State {
	switch code {
	case "1":
		return StateOpen
	case "2":
		return StateLocked
	default:
		return StateClosed
	}
}
