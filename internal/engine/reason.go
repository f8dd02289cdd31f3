package engine

import "fmt"

// Reason identifies what started an update cycle
type Reason int

const (
	// ReasonInitial is the first cycle after startup
	ReasonInitial Reason = iota
	// ReasonManual is an explicit user request
	ReasonManual
	// ReasonPeriodic comes from the schedule
	ReasonPeriodic
	// ReasonExternalSignal comes from the environment: clock change, SIGHUP, configuration reload
	ReasonExternalSignal
)

func (r Reason) String() string {
	switch r {
	case ReasonInitial:
		return "initial"
	case ReasonManual:
		return "manual"
	case ReasonPeriodic:
		return "periodic"
	case ReasonExternalSignal:
		return "external_signal"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// BypassesCache reports whether the cycle must refetch even with a valid cache entry
func (r Reason) BypassesCache() bool {
	return r == ReasonInitial || r == ReasonManual
}

// Outcome is how an update cycle ended
type Outcome int

const (
	// OutcomeNotConfigured means no calendar is selected; the call to action was published
	OutcomeNotConfigured Outcome = iota
	// OutcomeCacheHit means today's cached result was republished
	OutcomeCacheHit
	// OutcomeOffline means the network was unreachable; nothing was published
	OutcomeOffline
	// OutcomeFetchFailed means the calendar could not be fetched or parsed; nothing was published
	OutcomeFetchFailed
	// OutcomeUpdated means a fresh result was published and cached
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotConfigured:
		return "not_configured"
	case OutcomeCacheHit:
		return "cache_hit"
	case OutcomeOffline:
		return "offline"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeUpdated:
		return "updated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as its name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
