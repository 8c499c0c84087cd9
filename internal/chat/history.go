package chat

// MessageHistory - keeps relayed lines for the operator "recent" command.
// Push is called by the reactor while the console calls Tail, so implementations must be safe for concurrent use.
type MessageHistory interface {
	Push(line string)
	// Tail - returns up to n latest lines, oldest first
	Tail(n int) []string
}

// nopHistory - used when server is built without history
type nopHistory struct{}

func (nopHistory) Push(string) {}

func (nopHistory) Tail(int) []string { return nil }
