package shared

import (
	"fmt"
	"strings"
)

// AgentID identifies an agent on the message bus. The canonical form is
// "name@host", mirroring the JID-style addressing the simulator was
// designed against. The host part is advisory for the in-process bus.
type AgentID string

// NewAgentID builds an AgentID from a name and host
func NewAgentID(name, host string) AgentID {
	return AgentID(fmt.Sprintf("%s@%s", name, host))
}

// Name returns the local part of the agent id
func (a AgentID) Name() string {
	if i := strings.IndexByte(string(a), '@'); i >= 0 {
		return string(a)[:i]
	}
	return string(a)
}

// Host returns the host part of the agent id, or empty if absent
func (a AgentID) Host() string {
	if i := strings.IndexByte(string(a), '@'); i >= 0 {
		return string(a)[i+1:]
	}
	return ""
}

// IsZero reports whether the id is empty
func (a AgentID) IsZero() bool {
	return a == ""
}

func (a AgentID) String() string {
	return string(a)
}

// VehicleInitSignal is the reserved fictitious vehicle name used by the
// scheduler's bootstrap arrival broadcast. It never corresponds to a real
// vehicle; agents treat it as a wake-up signal.
const VehicleInitSignal = "vehicle_init_signal_999"
