package generation

// State is a step of the two-stage generation machine.
type State int

const (
	StatePending State = iota
	StateStage1Called
	StateStage1OK
	StateStage1Failed
	StateParsed
	StateNeedsFormat
	StateStage2Called
	StateStage2OK
	StateStage2Failed
	StateDone
)

var stateNames = map[State]string{
	StatePending:      "pending",
	StateStage1Called: "stage1_called",
	StateStage1OK:     "stage1_ok",
	StateStage1Failed: "stage1_failed",
	StateParsed:       "parsed",
	StateNeedsFormat:  "needs_format",
	StateStage2Called: "stage2_called",
	StateStage2OK:     "stage2_ok",
	StateStage2Failed: "stage2_failed",
	StateDone:         "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateStage1Failed
}
