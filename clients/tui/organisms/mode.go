package organisms

// Focus names the dashboard region receiving keys.
type Focus int

const (
	FocusAdd Focus = iota
	FocusSearch
	FocusList
)

// Next cycles add → search → list → add.
func (f Focus) Next() Focus {
	return (f + 1) % 3
}

func (f Focus) String() string {
	switch f {
	case FocusSearch:
		return "search"
	case FocusList:
		return "list"
	default:
		return "add"
	}
}
