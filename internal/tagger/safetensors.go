package tagger

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// maxHeaderSize bounds the JSON header of a safetensors file.
const maxHeaderSize = 100 << 20

type safetensorMetadata struct {
	Type    string  `json:"dtype"`
	Shape   []int   `json:"shape"`
	Offsets []int64 `json:"data_offsets"`
}

// ReadTensors loads every tensor of a weight file. The format is chosen by
// extension: .safetensors, or .pt/.pth/.bin for torch pickles.
func ReadTensors(path string) (map[string]Tensor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readSafetensors(f)
	case ".pt", ".pth", ".bin":
		return readTorch(path)
	default:
		return nil, fmt.Errorf("%w: %s (want .safetensors, .pt, .pth or .bin)", ErrUnsupportedFormat, filepath.Base(path))
	}
}

func readSafetensors(r io.Reader) (map[string]Tensor, error) {
	var n int64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("reading header size: %w", err)
	}
	if n <= 0 || n > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrUnsupportedFormat, n)
	}

	b := bytes.NewBuffer(make([]byte, 0, n))
	if _, err := io.CopyN(b, r, n); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var headers map[string]safetensorMetadata
	if err := json.NewDecoder(b).Decode(&headers); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading tensor data: %w", err)
	}

	ts := make(map[string]Tensor, len(headers))
	for name, meta := range headers {
		// __metadata__ decodes with an empty dtype
		if meta.Type == "" {
			continue
		}
		if len(meta.Offsets) != 2 {
			return nil, fmt.Errorf("tensor %s: malformed data_offsets %v", name, meta.Offsets)
		}
		start, end := meta.Offsets[0], meta.Offsets[1]
		if start < 0 || end < start || end > int64(len(data)) {
			return nil, fmt.Errorf("tensor %s: data_offsets [%d, %d] outside data of %d bytes", name, start, end, len(data))
		}

		values, err := decodeValues(meta.Type, data[start:end])
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		t := Tensor{Shape: meta.Shape, Data: values}
		if t.Len() != len(values) {
			return nil, fmt.Errorf("tensor %s: shape %v needs %d values, found %d", name, meta.Shape, t.Len(), len(values))
		}
		ts[name] = t
	}
	return ts, nil
}

func decodeValues(dtype string, raw []byte) ([]float32, error) {
	var f32s []float32
	switch dtype {
	case "F32":
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("F32 data of %d bytes", len(raw))
		}
		f32s = make([]float32, len(raw)/4)
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, f32s); err != nil {
			return nil, err
		}
	case "F16":
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("F16 data of %d bytes", len(raw))
		}
		u16s := make([]uint16, len(raw)/2)
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, u16s); err != nil {
			return nil, err
		}
		f32s = make([]float32, len(u16s))
		for i := range u16s {
			f32s[i] = float16.Frombits(u16s[i]).Float32()
		}
	case "BF16":
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("BF16 data of %d bytes", len(raw))
		}
		f32s = bfloat16.DecodeFloat32(raw)
	case "F64":
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("F64 data of %d bytes", len(raw))
		}
		f32s = make([]float32, len(raw)/8)
		for i := range f32s {
			f32s[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
	return f32s, nil
}

// WriteSafetensors writes ts as an F32 safetensors file. Tensors are laid
// out in name order; metadata may be nil.
func WriteSafetensors(w io.Writer, ts map[string]Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(ts)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var offset int64
	for _, name := range names {
		t := ts[name]
		if t.Len() != len(t.Data) {
			return fmt.Errorf("tensor %s: shape %v needs %d values, has %d", name, t.Shape, t.Len(), len(t.Data))
		}
		size := int64(len(t.Data)) * 4
		header[name] = safetensorMetadata{Type: "F32", Shape: t.Shape, Offsets: []int64{offset, offset + size}}
		offset += size
	}

	hb, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	// Pad so tensor data starts 8-byte aligned.
	if rem := len(hb) % 8; rem != 0 {
		hb = append(hb, bytes.Repeat([]byte(" "), 8-rem)...)
	}

	if err := binary.Write(w, binary.LittleEndian, int64(len(hb))); err != nil {
		return err
	}
	if _, err := w.Write(hb); err != nil {
		return err
	}
	for _, name := range names {
		if err := binary.Write(w, binary.LittleEndian, ts[name].Data); err != nil {
			return fmt.Errorf("writing tensor %s: %w", name, err)
		}
	}
	return nil
}

// SaveSafetensors writes ts to path atomically.
func SaveSafetensors(path string, ts map[string]Tensor, metadata map[string]string) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := WriteSafetensors(f, ts, metadata); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
