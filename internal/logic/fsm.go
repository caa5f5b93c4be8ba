package logic

// InitialState returns the state the driving loop starts in.
func InitialState() State {
	return StateIdle
}

// NextState returns the state that follows current after observing in.
// Pairs without a rule leave the state unchanged.
func NextState(current State, in Presence) State {
	switch {
	case current == StateIdle && in == Present:
		return StateObstaclePresent
	case current == StateObstaclePresent && in == Absent:
		return StateObstacleJustLeft
	case current == StateObstacleJustLeft && in == Absent:
		return StateIdle
	case current == StateObstacleJustLeft && in == Present:
		return StateObstaclePresent
	default:
		return current
	}
}

// OutputFor returns Crossing for the one state that follows a completed
// present-then-absent cycle.
func OutputFor(s State) Output {
	if s == StateObstacleJustLeft {
		return Crossing
	}
	return NoCrossing
}
