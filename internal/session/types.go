package session

import (
	"ttsd/internal/device"
	"ttsd/internal/engine"
)

// State is the lifecycle state of the session.
type State string

const (
	StateUnloaded  State = "unloaded"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateReloading State = "reloading"
)

// Handle is one loaded engine. A handle never changes after it is
// published; a reload publishes a new handle with a higher Generation.
type Handle struct {
	Engine     engine.Engine
	Paths      engine.ModelPaths
	Profile    device.Profile
	Generation uint64
	Languages  []string
}

// Snapshot is a read-only projection of the session state.
type Snapshot struct {
	State      State
	Generation uint64
	Paths      *engine.ModelPaths
	Err        string
}
