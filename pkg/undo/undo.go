// Package undo keeps a bounded history of state snapshots grouped into
// named transactions.
package undo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// DefaultMaxDepth is the number of transactions kept when none is given.
const DefaultMaxDepth = 100

// Undo errors.
var (
	ErrNoTransaction = errors.New("no open transaction")
	ErrSnapshot      = errors.New("snapshot copy failed")
)

// Entry is one committed transaction.
type Entry[S any] struct {
	ID          uuid.UUID
	Description string
	Before      S
	After       S
}

// Log records transactions over a state of type S. Snapshots are deep
// copies; the log never shares memory with the live model.
type Log[S any] struct {
	maxDepth int
	capture  func() S
	restore  func(S)
	equal    func(a, b S) bool

	entries []Entry[S]
	cursor  int // index of the last applied entry, -1 when none
	open    *Entry[S]
}

// New creates a log. capture reads the live state, restore replaces it and
// equal decides whether a transaction changed anything.
func New[S any](maxDepth int, capture func() S, restore func(S), equal func(a, b S) bool) *Log[S] {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Log[S]{maxDepth: maxDepth, capture: capture, restore: restore, equal: equal, cursor: -1}
}

func clone[S any](s S) (S, error) {
	var out S
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		return out, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	return out, nil
}

// Begin opens a transaction named desc. An already open transaction is
// committed first.
func (l *Log[S]) Begin(desc string) error {
	if l.open != nil {
		if _, err := l.End(); err != nil {
			return err
		}
	}
	before, err := clone(l.capture())
	if err != nil {
		return err
	}
	l.open = &Entry[S]{ID: uuid.New(), Description: desc, Before: before}
	return nil
}

// InTransaction reports whether Begin has been called without End.
func (l *Log[S]) InTransaction() bool { return l.open != nil }

// End commits the open transaction. It reports false when the state did
// not change, in which case nothing is recorded.
func (l *Log[S]) End() (bool, error) {
	if l.open == nil {
		return false, ErrNoTransaction
	}
	e := l.open
	l.open = nil

	after, err := clone(l.capture())
	if err != nil {
		return false, err
	}
	if l.equal(e.Before, after) {
		return false, nil
	}
	e.After = after

	l.entries = append(l.entries[:l.cursor+1], *e)
	if over := len(l.entries) - l.maxDepth; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
	l.cursor = len(l.entries) - 1
	return true, nil
}

// Abort discards the open transaction and restores its before-state.
func (l *Log[S]) Abort() error {
	if l.open == nil {
		return ErrNoTransaction
	}
	before := l.open.Before
	l.open = nil
	return l.apply(before)
}

func (l *Log[S]) apply(s S) error {
	c, err := clone(s)
	if err != nil {
		return err
	}
	l.restore(c)
	return nil
}

// CanUndo reports whether Undo has an entry to revert.
func (l *Log[S]) CanUndo() bool { return l.cursor >= 0 }

// CanRedo reports whether Redo has an entry to reapply.
func (l *Log[S]) CanRedo() bool { return l.cursor+1 < len(l.entries) }

// Undo restores the before-state of the last applied entry.
func (l *Log[S]) Undo() (bool, error) {
	if l.open != nil || !l.CanUndo() {
		return false, nil
	}
	e := l.entries[l.cursor]
	l.cursor--
	return true, l.apply(e.Before)
}

// Redo reapplies the next entry's after-state.
func (l *Log[S]) Redo() (bool, error) {
	if l.open != nil || !l.CanRedo() {
		return false, nil
	}
	l.cursor++
	return true, l.apply(l.entries[l.cursor].After)
}

// UndoDescription names the entry Undo would revert.
func (l *Log[S]) UndoDescription() string {
	if !l.CanUndo() {
		return ""
	}
	return l.entries[l.cursor].Description
}

// RedoDescription names the entry Redo would reapply.
func (l *Log[S]) RedoDescription() string {
	if !l.CanRedo() {
		return ""
	}
	return l.entries[l.cursor+1].Description
}

// Clear drops the whole history and any open transaction.
func (l *Log[S]) Clear() {
	l.entries = nil
	l.cursor = -1
	l.open = nil
}

// Len returns the number of recorded entries, including redoable ones.
func (l *Log[S]) Len() int { return len(l.entries) }

// Cursor returns the index of the last applied entry, or -1.
func (l *Log[S]) Cursor() int { return l.cursor }

// Entries returns the recorded entries, oldest first. Callers must not
// modify the snapshots.
func (l *Log[S]) Entries() []Entry[S] {
	out := make([]Entry[S], len(l.entries))
	copy(out, l.entries)
	return out
}
