package gesture

// NoGesture is the sentinel category index meaning "no result".
const NoGesture = -1

// Labels is the ordered category table. The position of a label is its
// category index; indices must remain stable for the process lifetime since
// they key both the shared result and the wire payloads.
type Labels []string

// Name returns the label for a category index, or "unknown" when the index
// is the NoGesture sentinel or out of range.
func (l Labels) Name(index int) string {
	if index < 0 || index >= len(l) {
		return "unknown"
	}
	return l[index]
}

// Index returns the category index for a label, or NoGesture if the label is
// not in the table.
func (l Labels) Index(name string) int {
	for i, s := range l {
		if s == name {
			return i
		}
	}
	return NoGesture
}
