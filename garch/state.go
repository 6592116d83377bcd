package garch

// State is the lifecycle stage of a model
type State int

const (
	Unfit State = iota
	Fitted
)

func (s State) String() string {
	switch s {
	case Unfit:
		return "Unfit"
	case Fitted:
		return "Fitted"
	}
	return "Unknown"
}
