package moderation

import (
	"fmt"
	"sync"
	"testing"

	"nego/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoStackNewestFirstAndCapped(t *testing.T) {
	u := NewUndoStack(3)
	for i := 0; i < 5; i++ {
		u.Push("admin", domain.UndoAction{ID: fmt.Sprint(i), Type: domain.UndoFlag})
	}

	list := u.List("admin")
	require.Len(t, list, 3)
	assert.Equal(t, "4", list[0].ID)
	assert.Equal(t, "2", list[2].ID)

	top, ok := u.Peek("admin")
	require.True(t, ok)
	assert.Equal(t, "4", top.ID)
}

func TestUndoStackPerAdmin(t *testing.T) {
	u := NewUndoStack(0)
	a := u.Push("a", domain.UndoAction{Type: domain.UndoModerate})
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	_, ok := u.Get("b", a.ID)
	assert.False(t, ok)
	assert.Empty(t, u.List("b"))
}

func TestUndoStackRemove(t *testing.T) {
	u := NewUndoStack(10)
	u.Push("admin", domain.UndoAction{ID: "x"})
	u.Push("admin", domain.UndoAction{ID: "y"})

	assert.True(t, u.Remove("admin", "x"))
	assert.False(t, u.Remove("admin", "x"))

	list := u.List("admin")
	require.Len(t, list, 1)
	assert.Equal(t, "y", list[0].ID)

	assert.True(t, u.Remove("admin", "y"))
	_, ok := u.Peek("admin")
	assert.False(t, ok)
}

func TestUndoStackListIsACopy(t *testing.T) {
	u := NewUndoStack(10)
	u.Push("admin", domain.UndoAction{ID: "x", Summary: "original"})

	list := u.List("admin")
	list[0].Summary = "changed"

	got, _ := u.Get("admin", "x")
	assert.Equal(t, "original", got.Summary)
}

func TestUndoStackConcurrentPush(t *testing.T) {
	u := NewUndoStack(DefaultLimit)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.Push("admin", domain.UndoAction{Type: domain.UndoFlag})
		}()
	}
	wg.Wait()
	assert.Len(t, u.List("admin"), DefaultLimit)
}
