// Package moderation keeps each admin's recent moderation actions so the
// console can reverse them.
package moderation

import (
	"sync"
	"time"

	"nego/internal/domain"

	"github.com/google/uuid"
)

// DefaultLimit is how many actions an admin can step back through.
const DefaultLimit = 10

// UndoStack holds a newest-first list of actions per admin.
type UndoStack struct {
	mu     sync.Mutex
	limit  int
	stacks map[string][]domain.UndoAction
}

func NewUndoStack(limit int) *UndoStack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &UndoStack{limit: limit, stacks: make(map[string][]domain.UndoAction)}
}

// Push records a to the top of adminID's stack, dropping the oldest entry
// past the limit. Missing ID and CreatedAt are filled in.
func (u *UndoStack) Push(adminID string, a domain.UndoAction) domain.UndoAction {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	stack := append([]domain.UndoAction{a}, u.stacks[adminID]...)
	if len(stack) > u.limit {
		stack = stack[:u.limit]
	}
	u.stacks[adminID] = stack
	return a
}

// List returns a copy of adminID's actions, newest first.
func (u *UndoStack) List(adminID string) []domain.UndoAction {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.UndoAction, len(u.stacks[adminID]))
	copy(out, u.stacks[adminID])
	return out
}

func (u *UndoStack) Get(adminID, id string) (domain.UndoAction, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, a := range u.stacks[adminID] {
		if a.ID == id {
			return a, true
		}
	}
	return domain.UndoAction{}, false
}

// Peek returns the most recent action.
func (u *UndoStack) Peek(adminID string) (domain.UndoAction, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	stack := u.stacks[adminID]
	if len(stack) == 0 {
		return domain.UndoAction{}, false
	}
	return stack[0], true
}

func (u *UndoStack) Remove(adminID, id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	stack := u.stacks[adminID]
	for i, a := range stack {
		if a.ID == id {
			stack = append(stack[:i:i], stack[i+1:]...)
			if len(stack) == 0 {
				delete(u.stacks, adminID)
			} else {
				u.stacks[adminID] = stack
			}
			return true
		}
	}
	return false
}
