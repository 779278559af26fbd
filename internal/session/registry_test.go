package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestCreateIsIdempotent(t *testing.T) {
	r := NewRegistry(fixedClock())

	s, created := r.Create("a1", "api", StatusWorking, ModeNormal)
	require.True(t, created)
	s.AppendDelta("hello", time.Now())

	again, created := r.Create("a1", "other", StatusIdle, ModePlan)
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, "api", again.Project)
	assert.Equal(t, StatusWorking, again.Status)
	assert.Len(t, again.Messages, 1)
	assert.Equal(t, 1, r.Len())
}

func TestUpdateStatusIdleClearsPending(t *testing.T) {
	r := NewRegistry(fixedClock())
	r.Create("a1", "api", StatusWorking, ModeNormal)
	require.True(t, r.SetPending("a1", InteractionQuestion))

	prev, ok := r.UpdateStatus("a1", StatusNeedsAttention)
	require.True(t, ok)
	assert.Equal(t, StatusWorking, prev)
	s, _ := r.Get("a1")
	assert.Equal(t, InteractionQuestion, s.Pending)

	_, ok = r.UpdateStatus("a1", StatusIdle)
	require.True(t, ok)
	assert.Equal(t, InteractionNone, s.Pending)
}

func TestUnknownSessionOperations(t *testing.T) {
	r := NewRegistry(fixedClock())
	_, ok := r.UpdateStatus("ghost", StatusIdle)
	assert.False(t, ok)
	assert.False(t, r.SetPending("ghost", InteractionPlan))
	assert.False(t, r.SetMode("ghost", ModePlan))
	assert.False(t, r.Remove("ghost"))
}

func TestConfirmRekeysProvisional(t *testing.T) {
	r := NewRegistry(fixedClock())
	prov := r.CreateProvisional("web", ModePlan)
	require.True(t, strings.HasPrefix(prov.ID, ProvisionalPrefix))
	provID := prov.ID

	s, ok := r.Confirm(provID, "abc123")
	require.True(t, ok)
	assert.Equal(t, "abc123", s.ID)
	assert.False(t, s.Provisional)
	assert.Equal(t, 1, r.Len())

	// The runtime's init for the same id must not produce a second record.
	_, created := r.Create("abc123", "web", StatusIdle, ModePlan)
	assert.False(t, created)
	assert.Equal(t, 1, r.Len())

	// Old id still resolves.
	got, ok := r.Get(provID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Confirm(provID, "abc123")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestConfirmAfterInitMerges(t *testing.T) {
	r := NewRegistry(fixedClock())
	prov := r.CreateProvisional("web", ModeNormal)
	provID := prov.ID

	// Faster init arrives first and already has output.
	canonical, _ := r.Create("abc123", "web", StatusWorking, ModeNormal)
	canonical.AppendDelta("summary", time.Now())

	s, ok := r.Confirm(provID, "abc123")
	require.True(t, ok)
	assert.Same(t, canonical, s)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "summary", s.Messages[0].Content)
	assert.Equal(t, "abc123", r.Resolve(provID))
}

func TestRemoveDropsAliases(t *testing.T) {
	r := NewRegistry(fixedClock())
	prov := r.CreateProvisional("web", ModeNormal)
	provID := prov.ID
	r.Confirm(provID, "abc123")

	require.True(t, r.Remove(provID))
	_, ok := r.Get("abc123")
	assert.False(t, ok)
	assert.Equal(t, provID, r.Resolve(provID))
}

func TestListOrdering(t *testing.T) {
	r := NewRegistry(fixedClock())
	r.Create("b", "zeta", StatusIdle, ModeNormal)
	r.Create("c", "alpha", StatusIdle, ModeNormal)
	r.Create("a", "alpha", StatusIdle, ModeNormal)

	var ids []string
	for _, s := range r.List() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestSnapshotIsDetached(t *testing.T) {
	r := NewRegistry(fixedClock())
	s, _ := r.Create("a1", "api", StatusWorking, ModeNormal)
	s.AppendDelta("one", time.Now())

	snap, ok := r.Snapshot("a1")
	require.True(t, ok)
	s.AppendDelta(" two", time.Now())
	s.AppendUser("next", time.Now())

	assert.Equal(t, "one", snap.Messages[0].Content)
	assert.Len(t, snap.Messages, 1)
}
