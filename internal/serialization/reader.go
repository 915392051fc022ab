package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
)

// ReaderOptions configures Decode.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// File is a decoded .gtape file.
type File struct {
	Header Header
	Flags  uint32
	Graph  *autodiff.Graph
}

// Decode reads a .gtape file from r and rebuilds its graph.
func Decode(r io.Reader, opts ReaderOptions) (*File, error) {
	var fixed [FixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	f := &File{Flags: binary.LittleEndian.Uint32(fixed[8:12])}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	nodeSize := binary.LittleEndian.Uint64(fixed[24:32])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if nodeSize > MaxNodeCount*NodeRecordSize {
		return nil, ErrTooManyNodes
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	nodes := make([]byte, nodeSize)
	if _, err := io.ReadFull(r, nodes); err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	if opts.ValidationLevel == ValidationStrict && !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(headerJSON, nodes), stored); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(headerJSON, &f.Header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateHeader(&f.Header, nodeSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	g, err := autodiff.FromNodes(decodeNodes(nodes), f.Header.NumVariables, f.Header.Output)
	if err != nil {
		return nil, err
	}
	f.Graph = g
	return f, nil
}

func decodeNodes(data []byte) []autodiff.Node {
	nodes := make([]autodiff.Node, 0, len(data)/NodeRecordSize)
	for rec := range slices.Chunk(data, NodeRecordSize) {
		if len(rec) < NodeRecordSize {
			break
		}
		op := binary.LittleEndian.Uint32(rec[0:4])
		if op > math.MaxUint8 {
			op = math.MaxUint8 // rejected by FromNodes as unknown
		}
		nodes = append(nodes, autodiff.Node{
			Op: ops.Kind(op),
			Parents: [2]int{
				int(int32(binary.LittleEndian.Uint32(rec[4:8]))),
				int(int32(binary.LittleEndian.Uint32(rec[8:12]))),
			},
			Value: math.Float64frombits(binary.LittleEndian.Uint64(rec[16:24])),
		})
	}
	return nodes
}

// ReadFile opens path and decodes it.
func ReadFile(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for tape loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file, opts)
}
