// Package common provides helpers shared by MCP tool implementations:
// the instrumented handler wrapper and argument accessors.
package common
