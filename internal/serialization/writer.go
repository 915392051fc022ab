package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/born-ml/gradtape/internal/autodiff"
)

const gradtapeVersion = "0.1.0" // Written when Header.GradtapeVersion is empty

// Encode writes g and header to w in .gtape format. The structural fields
// of header (FormatVersion, NumVariables, NumNodes, Output) are filled from
// g; CreatedAt and GradtapeVersion are set when zero.
func Encode(w io.Writer, g *autodiff.Graph, header Header) error {
	header.FormatVersion = FormatVersion
	header.NumVariables = g.NumVariables()
	header.NumNodes = g.Len()
	header.Output = g.Output()
	if header.GradtapeVersion == "" {
		header.GradtapeVersion = gradtapeVersion
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if err := ValidateHeader(&header, uint64(g.Len())*NodeRecordSize, ValidationStrict); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	nodes := encodeNodes(g)

	var flags uint32
	s := g.Stats()
	if g.NumRoots() == s.Variables+s.Constants {
		flags |= FlagHoisted
	}
	if header.Expression != "" {
		flags |= FlagHasSource
	}

	var fixed [FixedHeaderSize]byte
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(nodes)))
	sum := ComputeChecksum(headerJSON, nodes)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	for _, part := range [][]byte{fixed[:], headerJSON, nodes} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("failed to write tape: %w", err)
		}
	}
	return nil
}

func encodeNodes(g *autodiff.Graph) []byte {
	var buf bytes.Buffer
	buf.Grow(g.Len() * NodeRecordSize)
	var rec [NodeRecordSize]byte
	for i := range g.Len() {
		n := g.Node(i)
		binary.LittleEndian.PutUint32(rec[0:4], uint32(n.Op))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(int32(n.Parents[0])))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(int32(n.Parents[1])))
		binary.LittleEndian.PutUint32(rec[12:16], 0)
		binary.LittleEndian.PutUint64(rec[16:24], math.Float64bits(n.Value))
		buf.Write(rec[:])
	}
	return buf.Bytes()
}

// WriteFile encodes g into a new file at path.
func WriteFile(path string, g *autodiff.Graph, header Header) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for tape saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, g, header); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
