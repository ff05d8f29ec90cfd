package models

// Period represents a billing cycle of a community.
type Period struct {
	// ID is the unique identifier for the period.
	ID string

	// CommunityID is the community this period belongs to.
	CommunityID string

	// Code is the human-readable label (e.g., "2024-03").
	Code string

	// Seq is the monotonically increasing sequence number of the period.
	// Membership windows are evaluated against Seq, not wall-clock time.
	Seq int64
}

// Window is a half-open membership interval [StartSeq, EndSeq).
// A nil EndSeq means the membership is still active.
type Window struct {
	StartSeq int64
	EndSeq   *int64
}

// Contains reports whether the period sequence number seq falls inside the window.
func (w Window) Contains(seq int64) bool {
	if seq < w.StartSeq {
		return false
	}
	return w.EndSeq == nil || *w.EndSeq > seq
}

// OpenWindow returns a window starting at start with no end.
func OpenWindow(start int64) Window {
	return Window{StartSeq: start}
}

// ClosedWindow returns the window [start, end).
func ClosedWindow(start, end int64) Window {
	return Window{StartSeq: start, EndSeq: &end}
}
