package inbox

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *clock) {
	c := &clock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	return NewManager(DefaultCapacity, DefaultBurstWindow, c.now), c
}

func TestBurstSuppression(t *testing.T) {
	m, c := newTestManager()

	_, ok := m.Enqueue("s1", "api", "Should I continue?", TypeQuestion)
	require.True(t, ok)
	c.advance(1500 * time.Millisecond)
	_, ok = m.Enqueue("s1", "api", "Really?", TypeQuestion)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	c.advance(600 * time.Millisecond)
	_, ok = m.Enqueue("s1", "api", "Still there?", TypeQuestion)
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestBurstOnlyChecksHead(t *testing.T) {
	m, _ := newTestManager()

	_, ok := m.Enqueue("s1", "api", "a", TypeQuestion)
	require.True(t, ok)
	_, ok = m.Enqueue("s2", "web", "b", TypePlan)
	require.True(t, ok)
	// s1 is no longer the head, so its burst window does not apply.
	_, ok = m.Enqueue("s1", "api", "c", TypeQuestion)
	assert.True(t, ok)
	assert.Equal(t, 3, m.Len())
}

func TestCapacityDropsOldest(t *testing.T) {
	m, _ := newTestManager()

	for i := 0; i < 120; i++ {
		_, ok := m.Enqueue(fmt.Sprintf("s%d", i), "p", fmt.Sprintf("item %d", i), TypeUpdate)
		require.True(t, ok)
		assert.LessOrEqual(t, m.Len(), DefaultCapacity)
	}

	items := m.Items()
	require.Len(t, items, DefaultCapacity)
	assert.Equal(t, "item 119", items[0].Content)
	assert.Equal(t, "item 70", items[len(items)-1].Content)
}

func TestDequeue(t *testing.T) {
	m, c := newTestManager()
	a, _ := m.Enqueue("s1", "api", "a", TypeQuestion)
	m.Enqueue("s2", "web", "b", TypePlan)
	c.advance(3 * time.Second)
	m.Enqueue("s1", "api", "c", TypeComplete)

	got, ok := m.DequeueByID(a.ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Content)
	_, ok = m.DequeueByID(a.ID)
	assert.False(t, ok)

	c.advance(3 * time.Second)
	m.Enqueue("s1", "api", "d", TypeApproval)
	assert.Equal(t, 2, m.DequeueBySession("s1"))
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "s2", m.Items()[0].SessionID)
}

func TestRestoreReturnsItemToHead(t *testing.T) {
	m, _ := newTestManager()
	a, _ := m.Enqueue("s1", "api", "a", TypeQuestion)
	m.Enqueue("s2", "web", "b", TypePlan)

	opened, ok := m.DequeueByID(a.ID)
	require.True(t, ok)
	m.Restore(opened)
	m.Restore(opened)

	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
}

func TestSetLimitsTrims(t *testing.T) {
	m, _ := newTestManager()
	for i := 0; i < 10; i++ {
		m.Enqueue(fmt.Sprintf("s%d", i), "p", "x", TypeUpdate)
	}
	m.SetLimits(3, time.Second)
	assert.Equal(t, 3, m.Len())
}

func TestIDsAreUnique(t *testing.T) {
	m, _ := newTestManager()
	seen := map[string]bool{}
	for i := 0; i < 40; i++ {
		item, ok := m.Enqueue(fmt.Sprintf("s%d", i), "p", "x", TypeUpdate)
		require.True(t, ok)
		assert.False(t, seen[item.ID])
		seen[item.ID] = true
	}
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypePlan, ParseType("plan"))
	assert.Equal(t, TypeUpdate, ParseType("weird"))
}
