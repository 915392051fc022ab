package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "GTAP"
	FormatVersion   = 1
	FixedHeaderSize = 64   // Bytes before the JSON header
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
	ChecksumSize    = 32   // SHA-256
	NodeRecordSize  = 24
)

// Flags for the .gtape format.
const (
	FlagHoisted   uint32 = 1 << 0 // constants were hoisted ahead of operations
	FlagHasSource uint32 = 1 << 1 // header carries the source expression
)

// Header is the JSON metadata of a .gtape file.
type Header struct {
	FormatVersion   int               `json:"format_version"`
	GradtapeVersion string            `json:"gradtape_version"`
	CreatedAt       time.Time         `json:"created_at"`
	Expression      string            `json:"expression,omitempty"` // Source text, if compiled from one
	Variables       []string          `json:"variables,omitempty"`  // Variable names in point order
	NumVariables    int               `json:"num_variables"`
	NumNodes        int               `json:"num_nodes"`
	Output          int               `json:"output"`
	Prune           string            `json:"prune,omitempty"` // Pruning mode used at construction
	Metadata        map[string]string `json:"metadata,omitempty"`
}
