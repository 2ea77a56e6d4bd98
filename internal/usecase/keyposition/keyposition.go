// Package keyposition cycles through a course's key positions.
// Indexes are -1 when nothing is selected.
package keyposition

import (
	"chess_study/internal/domain/study"
)

const None = -1

// Cycle moves the selection up or down with wrap-around. Up from nothing or
// the first entry lands on the last one; down from nothing or the last entry
// lands on the first. An empty list always yields None.
func Cycle(list []study.KeyPosition, index int, d study.Direction) int {
	n := len(list)
	if n == 0 {
		return None
	}
	if index < 0 || index >= n {
		index = None
	}

	switch d {
	case study.Up:
		if index <= 0 {
			return n - 1
		}
		return index - 1
	case study.Down:
		if index == None || index == n-1 {
			return 0
		}
		return index + 1
	}
	return index
}

// Commit returns the FEN to load for index, the start position when index
// does not point into list.
func Commit(list []study.KeyPosition, index int) string {
	if index < 0 || index >= len(list) {
		return study.StartFEN
	}
	return list[index].FEN
}

// Ptr converts an index for JSON, where no selection is null.
func Ptr(index int) *int {
	if index < 0 {
		return nil
	}
	return &index
}

// FromPtr is the inverse of Ptr.
func FromPtr(p *int) int {
	if p == nil || *p < 0 {
		return None
	}
	return *p
}
