package worldstore

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
)

// encodeField flattens a present field to little-endian bytes: float64 bits
// for float fields, one byte per bool cell, int32 for int fields.
func encodeField(f world.Field) ([]byte, error) {
	var raw []byte
	switch {
	case f.Float != nil:
		cells := f.Float.Cells()
		raw = make([]byte, 8*len(cells))
		for i, v := range cells {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
	case f.Bool != nil:
		cells := f.Bool.Cells()
		raw = make([]byte, len(cells))
		for i, v := range cells {
			if v {
				raw[i] = 1
			}
		}
	case f.Int != nil:
		cells := f.Int.Cells()
		raw = make([]byte, 4*len(cells))
		for i, v := range cells {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("field %s: value %d at %d overflows int32", f.Name, v, i)
			}
			binary.LittleEndian.PutUint32(raw[4*i:], uint32(int32(v)))
		}
	default:
		return nil, fmt.Errorf("field %s is absent", f.Name)
	}
	return gzipCompress(raw)
}

// decodeField is the inverse of encodeField.
func decodeField(name world.FieldName, kind world.Kind, w, h int, data []byte) (world.Field, error) {
	raw, err := gzipDecompress(data)
	if err != nil {
		return world.Field{}, fmt.Errorf("failed to decompress field %s: %w", name, err)
	}
	if err := grid.ValidateDimensions(w, h); err != nil {
		return world.Field{}, fmt.Errorf("field %s: %w", name, err)
	}

	n := w * h
	f := world.Field{Name: name, Kind: kind}
	switch kind {
	case world.KindFloat:
		if len(raw) != 8*n {
			return world.Field{}, fmt.Errorf("field %s: %d bytes for %dx%d floats", name, len(raw), w, h)
		}
		cells := make([]float64, n)
		for i := range cells {
			cells[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		f.Float, err = grid.FloatFrom(w, h, cells)
	case world.KindBool:
		if len(raw) != n {
			return world.Field{}, fmt.Errorf("field %s: %d bytes for %dx%d bools", name, len(raw), w, h)
		}
		cells := make([]bool, n)
		for i, b := range raw {
			cells[i] = b != 0
		}
		f.Bool, err = grid.BoolFrom(w, h, cells)
	case world.KindInt:
		if len(raw) != 4*n {
			return world.Field{}, fmt.Errorf("field %s: %d bytes for %dx%d ints", name, len(raw), w, h)
		}
		cells := make([]int, n)
		for i := range cells {
			cells[i] = int(int32(binary.LittleEndian.Uint32(raw[4*i:])))
		}
		f.Int, err = grid.IntFrom(w, h, cells)
	default:
		return world.Field{}, fmt.Errorf("field %s: unknown kind %d", name, kind)
	}
	if err != nil {
		return world.Field{}, fmt.Errorf("field %s: %w", name, err)
	}
	return f, nil
}

// gzipCompress compresses data with gzip.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gzipDecompress decompresses gzip data.
func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
