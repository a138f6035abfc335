package controller

import (
	"testing"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMapper struct {
	controller Controller
	released   bool
}

func (m *fakeMapper) Input(in *controllerinput.Input) {}
func (m *fakeMapper) ReleaseVirtualButtons()           { m.released = true }
func (m *fakeMapper) SetController(c Controller)       { m.controller = c }
func (m *fakeMapper) Controller() Controller           { return m.controller }

type fakePool struct {
	acquired int
	released int
}

func (p *fakePool) Acquire() MapperHandle {
	p.acquired++
	return &fakeMapper{}
}
func (p *fakePool) Release(m MapperHandle) { p.released++ }

type fakeController struct {
	id string
}

func (c *fakeController) ID() string          { return c.id }
func (c *fakeController) Type() string        { return "fake" }
func (c *fakeController) Description() string { return "fake controller" }
func (c *fakeController) Flags() Flags        { return 0 }
func (c *fakeController) SetMapper(MapperHandle) {}
func (c *fakeController) Deallocate()         {}

func TestRegistryAddRejectsEmptyID(t *testing.T) {
	reg := NewRegistry(&fakePool{})
	err := reg.Add(&fakeController{id: ""})
	require.Error(t, err)
}

func TestRegistryAddRejectsDuplicateID(t *testing.T) {
	reg := NewRegistry(&fakePool{})
	require.NoError(t, reg.Add(&fakeController{id: "a"}))
	err := reg.Add(&fakeController{id: "a"})
	require.Error(t, err)
}

func TestRegistryAddBindsMapper(t *testing.T) {
	pool := &fakePool{}
	reg := NewRegistry(pool)
	c := &fakeController{id: "a"}
	require.NoError(t, reg.Add(c))
	assert.Equal(t, 1, pool.acquired)
	assert.NotNil(t, reg.Mapper("a"))
	assert.Equal(t, c, reg.Get("a"))
}

func TestRegistryRemoveReleasesMapper(t *testing.T) {
	pool := &fakePool{}
	reg := NewRegistry(pool)
	require.NoError(t, reg.Add(&fakeController{id: "a"}))
	reg.Remove("a")
	assert.Equal(t, 1, pool.released)
	assert.Nil(t, reg.Get("a"))
	assert.Nil(t, reg.Mapper("a"))
}

func TestRegistryListPreservesOrder(t *testing.T) {
	reg := NewRegistry(&fakePool{})
	require.NoError(t, reg.Add(&fakeController{id: "a"}))
	require.NoError(t, reg.Add(&fakeController{id: "b"}))
	ids := make([]string, 0, 2)
	for _, c := range reg.List() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 2, reg.Count())
}
