package explore

// entry is one discovered state with its pending action queue. url is
// the address the state was first captured at, used to reposition the
// driver when exploration resumes here.
type entry struct {
	stateID string
	url     string
	actions []Action
	next    int
}

func (e *entry) exhausted() bool { return e.next >= len(e.actions) }

// frontier holds states awaiting exploration. DFS treats it as a stack
// and drains each state's actions before moving on; BFS rotates through
// all pending states, taking one action per state per turn.
type frontier struct {
	strategy Strategy
	entries  []*entry
	seen     map[string]bool
}

func newFrontier(strategy Strategy) *frontier {
	return &frontier{strategy: strategy, seen: make(map[string]bool)}
}

// Known reports whether the state has ever entered the frontier.
func (f *frontier) Known(stateID string) bool { return f.seen[stateID] }

// Push enqueues a state unless it is already known to the frontier.
func (f *frontier) Push(stateID, url string, actions []Action) {
	if f.seen[stateID] {
		return
	}
	f.seen[stateID] = true
	f.entries = append(f.entries, &entry{stateID: stateID, url: url, actions: actions})
}

// Next returns the entry to work on, or nil when the frontier is drained.
// Exhausted entries are discarded on the way.
func (f *frontier) Next() *entry {
	for len(f.entries) > 0 {
		var e *entry
		if f.strategy == StrategyBFS {
			e = f.entries[0]
		} else {
			e = f.entries[len(f.entries)-1]
		}
		if e.exhausted() {
			f.drop(e)
			continue
		}
		return e
	}
	return nil
}

// Rotate moves the front entry to the back; BFS calls it after each
// action so sibling states advance in lockstep.
func (f *frontier) Rotate() {
	if f.strategy != StrategyBFS || len(f.entries) < 2 {
		return
	}
	e := f.entries[0]
	copy(f.entries, f.entries[1:])
	f.entries[len(f.entries)-1] = e
}

func (f *frontier) drop(e *entry) {
	for i, cur := range f.entries {
		if cur == e {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

func (f *frontier) Pending() int { return len(f.entries) }
