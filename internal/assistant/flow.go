package assistant

// flow tracks what happened during one inbound message so booking can be
// gated on an availability check made in the same flow.
type flow struct {
	rounds  int
	checked map[string]bool
	booked  map[string]bool
}

func newFlow() *flow {
	return &flow{checked: map[string]bool{}, booked: map[string]bool{}}
}

func (f *flow) markChecked(key string) { f.checked[key] = true }

func (f *flow) wasChecked(key string) bool { return f.checked[key] }

func (f *flow) markBooked(key string) { f.booked[key] = true }

func (f *flow) wasBooked(key string) bool { return f.booked[key] }
