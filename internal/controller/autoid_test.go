package controller

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoIDAllocatorSkipsLiveIDs(t *testing.T) {
	reg := NewRegistry(&fakePool{})
	var alloc AutoIDAllocator

	first := alloc.Next(reg)
	require.NoError(t, reg.Add(&fakeController{id: first}))

	second := alloc.Next(reg)
	assert.NotEqual(t, first, second, "a live ID must never be handed out again")
}

func TestAutoIDAllocatorWrapsAround(t *testing.T) {
	reg := NewRegistry(&fakePool{})
	var alloc AutoIDAllocator

	first := alloc.Next(reg)
	for i := 0; i < 1<<16; i++ {
		alloc.Next(reg)
	}
	wrapped := alloc.Next(reg)
	assert.Equal(t, fmt.Sprintf("auto-%04x", 0), first)
	assert.NotEmpty(t, wrapped)
}
