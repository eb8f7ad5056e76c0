package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_AppendOrder(t *testing.T) {
	m := NewMemory()
	m.Add(NewSystemMessage("sys"))
	m.Add(NewUserMessage("hello"))
	m.Add(NewAssistantMessage("hi"))

	msgs := m.Messages()
	assert.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
}

func TestMemory_DefensiveCopy(t *testing.T) {
	m := NewMemory()
	m.Add(NewUserMessage("original"))

	msgs := m.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "original", m.Messages()[0].Content)
}

func TestMemory_Last(t *testing.T) {
	m := NewMemory()
	for _, c := range []string{"a", "b", "c", "d"} {
		m.Add(NewUserMessage(c))
	}

	last := m.Last(3)
	assert.Len(t, last, 3)
	assert.Equal(t, "b", last[0].Content)
	assert.Equal(t, "d", last[2].Content)

	assert.Len(t, m.Last(10), 4)
	assert.Empty(t, m.Last(0))
}

func TestAgentState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateErrored.Terminal())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleTool.Valid())
	assert.False(t, Role("observer").Valid())
}
