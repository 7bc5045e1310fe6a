// Package vectorcodec implements the binary envelope used to move batches of
// embeddings without JSON overhead.
//
// The layout is little endian throughout:
//
//	u64 count
//	u64 dimension          (omitted when count is 0)
//	f32 × count×dimension  (row-major)
package vectorcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ContentType is the media type the envelope travels under.
const ContentType = "application/octet-stream"

const (
	headerSize = 8
	floatSize  = 4

	// MaxVectors bounds the count header accepted by the decoders.
	MaxVectors = 1 << 24

	// MaxDimension bounds the dimension header accepted by the decoders.
	MaxDimension = 1 << 20

	// MaxEmptyVectors bounds the count header of a zero-dimension envelope.
	// Such an envelope has no body, so its length cannot vouch for the count.
	MaxEmptyVectors = 1 << 16
)

var (
	// ErrShapeMismatch is returned when encoding a matrix whose rows differ
	// in length.
	ErrShapeMismatch = errors.New("vectorcodec: rows have different lengths")

	// ErrTruncatedInput is returned when the input ends before the number of
	// bytes its header declares.
	ErrTruncatedInput = errors.New("vectorcodec: truncated input")

	// ErrTooLarge is returned when a header declares more vectors or a larger
	// dimension than the decoder accepts.
	ErrTooLarge = errors.New("vectorcodec: envelope too large")
)

// Matrix is an ordered batch of equal-length float32 vectors.
type Matrix [][]float32

// Len returns the number of vectors.
func (m Matrix) Len() int { return len(m) }

// Dim returns the vector dimension, taken from the first row. It is 0 for
// an empty matrix.
func (m Matrix) Dim() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Validate reports ErrShapeMismatch if any row differs in length from the
// first.
func (m Matrix) Validate() error {
	dim := m.Dim()
	for i, row := range m {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), dim)
		}
	}
	return nil
}

// Size returns the encoded length of m in bytes.
func Size(m Matrix) int {
	if len(m) == 0 {
		return headerSize
	}
	return 2*headerSize + len(m)*m.Dim()*floatSize
}

// Encode returns the binary envelope for m.
func Encode(m Matrix) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, Size(m))
	binary.LittleEndian.PutUint64(buf, uint64(len(m)))
	if len(m) == 0 {
		return buf, nil
	}

	binary.LittleEndian.PutUint64(buf[headerSize:], uint64(m.Dim()))
	off := 2 * headerSize
	for _, row := range m {
		putRow(buf[off:], row)
		off += len(row) * floatSize
	}

	return buf, nil
}

// Decode parses a binary envelope. When the count header is zero Decode
// returns an empty matrix and ignores any bytes that follow.
func Decode(data []byte) (Matrix, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: need %d header bytes, have %d", ErrTruncatedInput, headerSize, len(data))
	}
	count := binary.LittleEndian.Uint64(data)
	if count == 0 {
		return Matrix{}, nil
	}

	if len(data) < 2*headerSize {
		return nil, fmt.Errorf("%w: missing dimension header", ErrTruncatedInput)
	}
	dimension := binary.LittleEndian.Uint64(data[headerSize:])

	n, dim, err := checkHeader(count, dimension)
	if err != nil {
		return nil, err
	}

	body := data[2*headerSize:]
	want := n * dim * floatSize
	if len(body) < want {
		return nil, fmt.Errorf("%w: header declares %d bytes of vectors, have %d", ErrTruncatedInput, want, len(body))
	}

	m := make(Matrix, n)
	for i := range m {
		m[i] = readRow(body[i*dim*floatSize:], dim)
	}

	return m, nil
}

// checkHeader converts the wire header to ints, rejecting values the
// decoders refuse to allocate for.
func checkHeader(count, dimension uint64) (int, int, error) {
	if count > MaxVectors {
		return 0, 0, fmt.Errorf("%w: %d vectors exceeds %d", ErrTooLarge, count, MaxVectors)
	}
	if dimension > MaxDimension {
		return 0, 0, fmt.Errorf("%w: dimension %d exceeds %d", ErrTooLarge, dimension, MaxDimension)
	}
	if dimension == 0 && count > MaxEmptyVectors {
		return 0, 0, fmt.Errorf("%w: %d zero-dimension vectors exceeds %d", ErrTooLarge, count, MaxEmptyVectors)
	}
	n, dim := int(count), int(dimension)
	if dim > 0 && n > math.MaxInt/floatSize/dim {
		return 0, 0, fmt.Errorf("%w: %d×%d vectors", ErrTooLarge, n, dim)
	}
	return n, dim, nil
}

func putRow(dst []byte, row []float32) {
	for j, v := range row {
		binary.LittleEndian.PutUint32(dst[j*floatSize:], math.Float32bits(v))
	}
}

func readRow(src []byte, dim int) []float32 {
	row := make([]float32, dim)
	for j := range row {
		row[j] = math.Float32frombits(binary.LittleEndian.Uint32(src[j*floatSize:]))
	}
	return row
}

// EncodeVector returns a single row in envelope layout, without headers.
// sqlite-vec stores embedding blobs in the same layout.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*floatSize)
	putRow(buf, v)
	return buf
}

// DecodeVector parses a headerless row written by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%floatSize != 0 {
		return nil, fmt.Errorf("%w: vector blob of %d bytes is not a multiple of %d", ErrTruncatedInput, len(b), floatSize)
	}
	return readRow(b, len(b)/floatSize), nil
}

// Encoder writes envelopes to an io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the envelope for m. Rows are written one at a time so large
// batches are never buffered whole.
func (e *Encoder) Encode(m Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var header [2 * headerSize]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(m)))
	if len(m) == 0 {
		_, err := e.w.Write(header[:headerSize])
		return err
	}
	binary.LittleEndian.PutUint64(header[headerSize:], uint64(m.Dim()))
	if _, err := e.w.Write(header[:]); err != nil {
		return err
	}

	row := make([]byte, m.Dim()*floatSize)
	for _, v := range m {
		putRow(row, v)
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Decoder reads envelopes from an io.Reader.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads exactly one envelope. It reads nothing past the count header
// when the count is zero.
func (d *Decoder) Decode() (Matrix, error) {
	var header [2 * headerSize]byte
	if err := d.readFull(header[:headerSize]); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint64(header[:])
	if count == 0 {
		return Matrix{}, nil
	}

	if err := d.readFull(header[headerSize:]); err != nil {
		return nil, err
	}
	n, dim, err := checkHeader(count, binary.LittleEndian.Uint64(header[headerSize:]))
	if err != nil {
		return nil, err
	}

	// Rows are appended as they arrive so a lying header cannot force a
	// large allocation up front.
	m := make(Matrix, 0, min(n, 1024))
	buf := make([]byte, dim*floatSize)
	for range n {
		if err := d.readFull(buf); err != nil {
			return nil, err
		}
		m = append(m, readRow(buf, dim))
	}

	return m, nil
}

func (d *Decoder) readFull(buf []byte) error {
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %w", ErrTruncatedInput, err)
		}
		return err
	}
	return nil
}
