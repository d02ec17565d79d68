package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddEmitsAddedThenModified(t *testing.T) {
	r := New()
	events := r.Subscribe()

	r.Add(ToolDefinition{DisplayName: "just_build", InternalName: "just_build_/tmp/justfile"})
	select {
	case ev := <-events:
		assert.Equal(t, Added, ev.Kind)
		assert.Equal(t, "just_build", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Added event")
	}

	r.Add(ToolDefinition{DisplayName: "just_build", InternalName: "just_build_/tmp/justfile", Description: "v2"})
	select {
	case ev := <-events:
		assert.Equal(t, Modified, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Modified event")
	}
}

func TestRegistry_RemoveEmitsRemovedOnlyWhenPresent(t *testing.T) {
	r := New()
	events := r.Subscribe()

	r.Remove("does-not-exist")
	select {
	case <-events:
		t.Fatal("unexpected event for no-op remove")
	case <-time.After(50 * time.Millisecond):
	}

	r.Add(ToolDefinition{DisplayName: "just_build"})
	<-events // drain Added

	r.Remove("just_build")
	select {
	case ev := <-events:
		assert.Equal(t, Removed, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Removed event")
	}

	_, ok := r.Get("just_build")
	assert.False(t, ok)
}

func TestRegistry_ListSnapshot(t *testing.T) {
	r := New()
	r.Add(ToolDefinition{DisplayName: "a"})
	r.Add(ToolDefinition{DisplayName: "b"})
	require.Len(t, r.List(), 2)
}

func TestSHA256Hex_Deterministic(t *testing.T) {
	a := SHA256Hex([]byte("hello"))
	b := SHA256Hex([]byte("hello"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
