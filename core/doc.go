// Package core defines the shared data model of the FunMax runtime: the
// conversational Message and ToolCall types, the append-only Memory that both
// the reasoning service and the tool executor read and write, and the agent
// run state machine's state enum.
package core
