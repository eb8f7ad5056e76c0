package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name     string
	result   *Result
	err      error
	cleanups *[]string
	cleanErr error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool for tests" }

func (f *fakeTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	return f.result, f.err
}

func (f *fakeTool) Cleanup(ctx context.Context) error {
	if f.cleanups != nil {
		*f.cleanups = append(*f.cleanups, f.name)
	}

	return f.cleanErr
}

func TestRegistryRegister(t *testing.T) {
	t.Run("preserves registration order", func(t *testing.T) {
		r := NewRegistry()

		require.NoError(t, r.Register(&fakeTool{name: "c"}))
		require.NoError(t, r.Register(&fakeTool{name: "a"}))
		require.NoError(t, r.Register(&fakeTool{name: "b"}))

		assert.Equal(t, []string{"c", "a", "b"}, r.Names())

		defs := r.Definitions()
		require.Len(t, defs, 3)
		assert.Equal(t, "c", defs[0].Function.Name)
		assert.Equal(t, "a", defs[1].Function.Name)
		assert.Equal(t, "b", defs[2].Function.Name)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		r := NewRegistry()

		require.NoError(t, r.Register(&fakeTool{name: "a"}))

		err := r.Register(&fakeTool{name: "a"})

		var dup *DuplicateToolError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "a", dup.Name)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("register all stops at first duplicate without partial insert of the failing tool", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&fakeTool{name: "b"}))

		err := r.RegisterAll(&fakeTool{name: "a"}, &fakeTool{name: "b"}, &fakeTool{name: "c"})

		var dup *DuplicateToolError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, []string{"b", "a"}, r.Names())
	})
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "a"}))

	got, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())

	_, err = r.Resolve("missing")

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
}

func TestRegistryExecute(t *testing.T) {
	t.Run("returns tool result", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&fakeTool{name: "a", result: &Result{Output: "ok"}}))

		result, err := r.Execute(context.Background(), "a", map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "ok", result.Output)
		assert.False(t, result.Failed())
	})

	t.Run("folds execution errors into the result", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&fakeTool{name: "a", err: errors.New("boom")}))

		result, err := r.Execute(context.Background(), "a", map[string]any{})
		require.NoError(t, err)
		assert.True(t, result.Failed())
		assert.Contains(t, result.String(), "boom")
	})

	t.Run("unknown tool is an error", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Execute(context.Background(), "missing", map[string]any{})

		var unknown *UnknownToolError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("missing required argument fails validation", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(NewTerminate()))

		result, err := r.Execute(context.Background(), NameTerminate, map[string]any{})
		require.NoError(t, err)
		assert.True(t, result.Failed())
	})
}

func TestRegistryCleanup(t *testing.T) {
	t.Run("runs hooks in registration order exactly once", func(t *testing.T) {
		var order []string

		r := NewRegistry()
		require.NoError(t, r.Register(&fakeTool{name: "first", cleanups: &order}))
		require.NoError(t, r.Register(&fakeTool{name: "second", cleanups: &order}))
		require.NoError(t, r.Register(&fakeTool{name: "third", cleanups: &order}))

		r.Cleanup(context.Background())
		r.Cleanup(context.Background())

		assert.Equal(t, []string{"first", "second", "third"}, order)
	})

	t.Run("a failing hook does not stop the rest", func(t *testing.T) {
		var order []string

		r := NewRegistry()
		require.NoError(t, r.Register(&fakeTool{name: "first", cleanups: &order, cleanErr: errors.New("boom")}))
		require.NoError(t, r.Register(&fakeTool{name: "second", cleanups: &order}))

		r.Cleanup(context.Background())

		assert.Equal(t, []string{"first", "second"}, order)
	})
}

func TestNewBuiltin(t *testing.T) {
	for _, name := range BuiltinNames() {
		got, err := NewBuiltin(name)
		require.NoError(t, err)
		assert.Equal(t, name, got.Name())
	}

	_, err := NewBuiltin("no_such_tool")

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)

	assert.True(t, IsBuiltin(NameTerminate))
	assert.False(t, IsBuiltin("no_such_tool"))
}

func TestTerminate(t *testing.T) {
	term := NewTerminate()

	result, err := term.Execute(context.Background(), map[string]any{"status": "success"})
	require.NoError(t, err)
	assert.Equal(t, "The interaction has been completed with status: success", result.Output)
}

func TestFunctionTool(t *testing.T) {
	sum := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "42", nil
		},
	)

	result, err := sum.Execute(context.Background(), map[string]any{"a": 40.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, "42", result.Output)

	_, err = sum.Execute(context.Background(), map[string]any{"a": 40.0})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionToolFromStructRequiredFields(t *testing.T) {
	type echoArgs struct {
		Text   string `json:"text" description:"text to echo"`
		Prefix string `json:"prefix,omitempty"`
	}

	echo := NewFunctionToolFromStruct(
		"echo",
		"Echo the given text",
		echoArgs{},
		func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	)

	result, err := echo.Execute(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Output)

	// The derived schema stores required as []string; missing fields must
	// still be rejected.
	_, err = echo.Execute(context.Background(), map[string]any{"prefix": "x"})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "text")
}

func TestRegistryConcurrentDefinitions(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = r.Register(&fakeTool{name: fmt.Sprintf("tool_%d", n)})
		}(i)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Definitions()
		}()
	}
	wg.Wait()

	assert.Len(t, r.Definitions(), 8)
}

// recordLogger captures log messages for assertions.
type recordLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordLogger) log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordLogger) Debug(msg string, args ...any) { l.log(msg) }
func (l *recordLogger) Info(msg string, args ...any)  { l.log(msg) }
func (l *recordLogger) Warn(msg string, args ...any)  { l.log(msg) }
func (l *recordLogger) Error(msg string, args ...any) { l.log(msg) }

func (l *recordLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == msg {
			return true
		}
	}

	return false
}

func TestRegistryExecuteLogsToolCalls(t *testing.T) {
	logger := &recordLogger{}

	r := NewRegistry(func(o *RegistryOptions) { o.Logger = logger })
	require.NoError(t, r.Register(&fakeTool{name: "ok", result: &Result{Output: "fine"}}))
	require.NoError(t, r.Register(&fakeTool{name: "broken", err: errors.New("boom")}))

	_, err := r.Execute(context.Background(), "ok", nil)
	require.NoError(t, err)
	assert.True(t, logger.has("tool execution completed"))

	_, err = r.Execute(context.Background(), "broken", nil)
	require.NoError(t, err)
	assert.True(t, logger.has("tool execution failed"))
}
