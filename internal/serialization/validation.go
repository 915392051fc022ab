package serialization

import (
	"fmt"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize = 16 * 1024 * 1024 // 16MB - maximum header size
	MaxNodeCount  = 1 << 26          // Maximum number of nodes in a file
	MaxNameLen    = 256              // Maximum variable name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict checks the header and the checksum (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks the header only.
	ValidationNormal
	// ValidationNone skips header checks. The node list is still checked
	// when the graph is rebuilt.
	ValidationNone
)

// ValidateVariableName rejects names that cannot round-trip through a CSV
// header or a --vars list.
func ValidateVariableName(name string) error {
	if name == "" {
		return &ValidationError{Type: "variable_name", Details: "empty name"}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{
			Type:    "variable_name",
			Field:   name[:16] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxNameLen),
		}
	}
	if strings.ContainsAny(name, ",\n\r\x00") {
		return &ValidationError{Type: "variable_name", Field: name, Details: "contains a separator or null byte"}
	}
	return nil
}

// ValidateHeader checks h against the node section size read from the
// fixed header.
func ValidateHeader(h *Header, nodeBytes uint64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if h.NumNodes < 0 || h.NumNodes > MaxNodeCount {
		return &ValidationError{
			Type:    "node_count",
			Details: fmt.Sprintf("got %d, max %d", h.NumNodes, MaxNodeCount),
		}
	}
	if want := uint64(h.NumNodes) * NodeRecordSize; want != nodeBytes {
		return &ValidationError{
			Type:    "node_section",
			Details: fmt.Sprintf("%d nodes need %d bytes, section has %d", h.NumNodes, want, nodeBytes),
		}
	}
	if h.NumVariables < 0 || h.NumVariables > h.NumNodes {
		return &ValidationError{
			Type:    "num_variables",
			Details: fmt.Sprintf("%d variables for %d nodes", h.NumVariables, h.NumNodes),
		}
	}
	if len(h.Variables) > 0 && len(h.Variables) != h.NumVariables {
		return &ValidationError{
			Type:    "variables",
			Details: fmt.Sprintf("%d names for %d variables", len(h.Variables), h.NumVariables),
		}
	}
	seen := make(map[string]bool, len(h.Variables))
	for _, name := range h.Variables {
		if err := ValidateVariableName(name); err != nil {
			return err
		}
		if seen[name] {
			return &ValidationError{Type: "variables", Field: name, Details: "duplicate name"}
		}
		seen[name] = true
	}
	return nil
}
