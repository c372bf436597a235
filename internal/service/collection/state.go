package collection

// State is the lifecycle state of a Collection.
//
//	Uninitialized -> Loading -> Ready -> Loading -> Ready ...
//	any -> Disposed (terminal)
//
// A failed fetch returns to the previous state: Ready if anything was ever
// loaded, Uninitialized otherwise.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}
