package tagger

import (
	"errors"
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
)

var errEmptyStateDict = errors.New("state dict has no tensors")

// readTorch loads a state dict saved with torch.save.
func readTorch(path string) (map[string]Tensor, error) {
	pt, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unpickling %s: %w", path, err)
	}

	ts := make(map[string]Tensor)
	add := func(k, v any) error {
		name, ok := k.(string)
		if !ok {
			return fmt.Errorf("%w: state dict key %v is not a string", ErrUnsupportedFormat, k)
		}
		t, ok := v.(*pytorch.Tensor)
		if !ok {
			// Non-tensor entries such as _metadata are skipped.
			return nil
		}
		tensor, err := fromTorch(t)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		ts[name] = tensor
		return nil
	}

	switch d := pt.(type) {
	case *types.Dict:
		for _, k := range d.Keys() {
			if err := add(k, d.MustGet(k)); err != nil {
				return nil, err
			}
		}
	case *types.OrderedDict:
		for e := d.List.Front(); e != nil; e = e.Next() {
			entry := e.Value.(*types.OrderedDictEntry)
			if err := add(entry.Key, entry.Value); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: top-level object is %T, want a state dict", ErrUnsupportedFormat, pt)
	}

	if len(ts) == 0 {
		return nil, errEmptyStateDict
	}
	return ts, nil
}

// fromTorch copies a contiguous torch tensor into a Tensor.
func fromTorch(t *pytorch.Tensor) (Tensor, error) {
	shape := append([]int(nil), t.Size...)
	n := numElements(shape)

	// Row-major strides
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		if i < len(t.Stride) && shape[i] > 1 && t.Stride[i] != stride {
			return Tensor{}, fmt.Errorf("%w: size %v stride %v", ErrNonContiguous, t.Size, t.Stride)
		}
		stride *= shape[i]
	}

	var src []float32
	switch s := t.Source.(type) {
	case *pytorch.FloatStorage:
		src = s.Data
	case *pytorch.HalfStorage:
		src = s.Data
	case *pytorch.BFloat16Storage:
		src = s.Data
	case *pytorch.DoubleStorage:
		src = make([]float32, len(s.Data))
		for i, v := range s.Data {
			src[i] = float32(v)
		}
	default:
		return Tensor{}, fmt.Errorf("%w: %T", ErrUnsupportedDType, t.Source)
	}

	off := t.StorageOffset
	if off < 0 || off+n > len(src) {
		return Tensor{}, fmt.Errorf("storage of %d values too small for offset %d and %d elements", len(src), off, n)
	}
	data := make([]float32, n)
	copy(data, src[off:off+n])
	return Tensor{Shape: shape, Data: data}, nil
}
