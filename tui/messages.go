package tui

// Besides these, the model handles progress.Event values, one per change to
// the display.

// promptMsg asks the user a question; the answer goes to reply, which must
// have room for one value.
type promptMsg struct {
	title    string
	question string
	reply    chan bool
}

// promptDoneMsg withdraws a question nobody waits for any more.
type promptDoneMsg struct {
	reply chan bool
}
