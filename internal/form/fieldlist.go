package form

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("entry index out of range")
	ErrLastEntry       = errors.New("cannot remove the last entry")
)

// FieldList is an ordered, editable list of text entries such as ingredients
// or instruction steps. It always holds at least one entry.
type FieldList struct {
	entries []string
}

// NewFieldList returns a list holding values, or a single empty entry when
// values is empty.
func NewFieldList(values ...string) *FieldList {
	if len(values) == 0 {
		return &FieldList{entries: []string{""}}
	}
	return &FieldList{entries: append([]string(nil), values...)}
}

// Append adds an empty entry at the end.
func (l *FieldList) Append() {
	l.entries = append(l.entries, "")
}

// Remove deletes the entry at i, keeping the order of the rest.
func (l *FieldList) Remove(i int) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("remove %d of %d: %w", i, len(l.entries), ErrIndexOutOfRange)
	}
	if len(l.entries) == 1 {
		return ErrLastEntry
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return nil
}

// Set replaces the entry at i.
func (l *FieldList) Set(i int, v string) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("set %d of %d: %w", i, len(l.entries), ErrIndexOutOfRange)
	}
	l.entries[i] = v
	return nil
}

// Values returns a copy of the entries.
func (l *FieldList) Values() []string {
	return append([]string(nil), l.entries...)
}

// Len returns the number of entries.
func (l *FieldList) Len() int {
	return len(l.entries)
}
