// Package gen compiles an editor project graph into a runnable
// Telegram-bot program and its sibling artifacts.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrStructural indicates a fatal project-graph defect. No partial
	// program is emitted when a structural error is reported.
	ErrStructural = errors.New("botbuilder: structural error")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("botbuilder: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("botbuilder: code generation failed")
)

// StructuralError reports a project defect that aborts generation,
// with enough context to pinpoint the offending node in the editor.
type StructuralError struct {
	NodeID   string // offending node id
	NodeType string // node type tag
	Field    string // missing or invalid field (if applicable)
	Message  string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString("botbuilder: structural error")
	if e.NodeID != "" {
		b.WriteString(" on node ")
		b.WriteString(e.NodeID)
	}
	if e.NodeType != "" {
		fmt.Fprintf(&b, " (type %s)", e.NodeType)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for StructuralError.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// NewStructuralError creates a new StructuralError.
func NewStructuralError(nodeID, nodeType, field, message string) *StructuralError {
	return &StructuralError{
		NodeID:   nodeID,
		NodeType: nodeType,
		Field:    field,
		Message:  message,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("botbuilder: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("botbuilder: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation failure.
type GenerationError struct {
	Phase    string // "analyze", "fragment", "assemble", "emit"
	Artifact string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("botbuilder: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Artifact != "" {
		fmt.Fprintf(&b, " (artifact: %s)", e.Artifact)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, artifact, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:    phase,
		Artifact: artifact,
		Message:  message,
		Cause:    cause,
	}
}

// IsStructuralError reports whether the error is a StructuralError.
func IsStructuralError(err error) bool {
	var serr *StructuralError
	return errors.As(err, &serr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var gerr *GenerationError
	return errors.As(err, &gerr)
}

// WarningType classifies recoverable generation findings.
type WarningType string

// Warning types surfaced alongside the generated program.
const (
	// WarningDanglingReference marks a goto or transition target that
	// does not exist in the graph snapshot.
	WarningDanglingReference WarningType = "dangling_reference"
	// WarningUnreachableNode marks a node no button, rule, input flow,
	// auto transition or connection leads to.
	WarningUnreachableNode WarningType = "unreachable_node"
	// WarningEmptyTarget marks a goto button with an empty target.
	WarningEmptyTarget WarningType = "empty_target"
)

// Warning is a recoverable generation finding. Warnings are collected
// and returned with the result instead of failing generation, so the
// editor can display them without losing the generated program.
type Warning struct {
	Type    WarningType `json:"type"`
	NodeID  string      `json:"nodeId,omitempty"` // node the finding was discovered on
	Target  string      `json:"target,omitempty"` // referenced node id, when applicable
	Message string      `json:"message,omitempty"`
}

// String returns a short human-readable form of the warning.
func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Type))
	if w.NodeID != "" {
		b.WriteString(" at ")
		b.WriteString(w.NodeID)
	}
	if w.Target != "" {
		b.WriteString(" -> ")
		b.WriteString(w.Target)
	}
	if w.Message != "" {
		b.WriteString(": ")
		b.WriteString(w.Message)
	}
	return b.String()
}
