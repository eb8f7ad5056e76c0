package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyfun-ai/funmax/core"
)

func TestMockModelScriptCursor(t *testing.T) {
	m := NewMockModel(func(o *MockModelOptions) {
		o.Script = []*Response{
			{Content: "first"},
			{Content: "second"},
		}
	})

	ctx := context.Background()

	r1, err := m.AskTool(ctx, nil, nil, ToolChoiceAuto)
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Content)

	r2, err := m.AskTool(ctx, nil, nil, ToolChoiceAuto)
	require.NoError(t, err)
	assert.Equal(t, "second", r2.Content)

	// Exhausted scripts keep returning the last entry.
	r3, err := m.AskTool(ctx, nil, nil, ToolChoiceAuto)
	require.NoError(t, err)
	assert.Equal(t, "second", r3.Content)

	assert.Equal(t, 3, m.Calls())
}

func TestMockModelAsk(t *testing.T) {
	m := NewMockModel(func(o *MockModelOptions) {
		o.AskReply = "pong"
	})

	reply, err := m.Ask(context.Background(), []core.Message{core.NewUserMessage("ping")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)

	_, err = m.Ask(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestUsageAccumulatesPerCall(t *testing.T) {
	m := NewMockModel(func(o *MockModelOptions) {
		o.TokensPerCall = Usage{InputTokens: 7, CompletionTokens: 3}
	})

	ctx := context.Background()

	_, err := m.Ask(ctx, []core.Message{core.NewUserMessage("one")}, nil)
	require.NoError(t, err)

	_, err = m.AskTool(ctx, nil, nil, ToolChoiceAuto)
	require.NoError(t, err)

	assert.Equal(t, Usage{InputTokens: 14, CompletionTokens: 6}, m.Usage())
}
