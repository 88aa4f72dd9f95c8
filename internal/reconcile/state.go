package reconcile

import "fmt"

// State is the progress of one product update.
type State int

const (
	Pending State = iota
	AssetsUploading
	AssetsReady
	XMLSubmitting
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case AssetsUploading:
		return "assets_uploading"
	case AssetsReady:
		return "assets_ready"
	case XMLSubmitting:
		return "xml_submitting"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	Pending:         {AssetsUploading, Failed},
	AssetsUploading: {AssetsReady, Failed},
	AssetsReady:     {XMLSubmitting, Failed},
	XMLSubmitting:   {Committed, Failed},
}

// CanTransition reports whether to directly follows s. Committed and
// Failed are terminal.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Committed || s == Failed
}
