package tool

import "sort"

// builtinConstructors is the static table of tools constructible by name.
// The table is fixed at compile time so configuration errors surface before
// an agent starts running.
var builtinConstructors = map[string]func() Tool{
	NameTerminate:            func() Tool { return NewTerminate() },
	NameBash:                 func() Tool { return NewBash() },
	NameFileOperator:         func() Tool { return NewFileOperator() },
	NameStrReplaceEditor:     func() Tool { return NewStrReplaceEditor() },
	NameCreateChatCompletion: func() Tool { return NewCreateChatCompletion() },
	NameWebSearch:            func() Tool { return NewWebSearch() },
	NameBrowserUse:           func() Tool { return NewBrowserUse() },
}

// NewBuiltin constructs a fresh instance of a builtin tool by name.
func NewBuiltin(name string) (Tool, error) {
	ctor, ok := builtinConstructors[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	return ctor(), nil
}

// IsBuiltin reports whether name refers to a builtin tool.
func IsBuiltin(name string) bool {
	_, ok := builtinConstructors[name]
	return ok
}

// BuiltinNames returns the names of all builtin tools, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinConstructors))
	for name := range builtinConstructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
