// Package serialization stores recorded tapes in the native .gtape format
// so a graph can be reused without recompiling its expression.
//
// The .gtape format is a simple, checksummed binary format:
//
//	Format Structure:
//	  [4 bytes: Magic "GTAP"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [4 bytes: Reserved]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [8 bytes: Node Section Size (uint64 LE)]
//	  [32 bytes: SHA-256 of header JSON followed by the node section]
//	  [Header: JSON metadata]
//	  [Nodes: 24-byte little-endian records, in tape order]
//
// Each node record is op (uint32), first parent (int32), second parent
// (int32), reserved (uint32) and the constant value (float64 bits). Absent
// parents are stored as -1.
//
// Example usage:
//
//	// Save a graph
//	if err := serialization.WriteFile("f.gtape", g, serialization.Header{
//	    Expression: "x*y + sin(x)",
//	    Variables:  []string{"x", "y"},
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	f, err := serialization.ReadFile("f.gtape", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	value, _ := f.Graph.Evaluate([]float64{2, 3})
package serialization
