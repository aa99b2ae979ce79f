package tagger

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zero tensor of the given shape.
func NewTensor(shape ...int) Tensor {
	return Tensor{Shape: slices.Clone(shape), Data: make([]float32, numElements(shape))}
}

// Len returns the number of elements implied by the shape.
func (t Tensor) Len() int {
	return numElements(t.Shape)
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Parameter names as written by the original nn.Sequential state dict:
// index 0 is the embedding, index 1 the dropout, index 2 the BiRNN module.
const (
	ParamEmbedding = "0.weight"
	ParamFCWeight  = "2.fc_layer.weight"
	ParamFCBias    = "2.fc_layer.bias"

	paramLSTMPrefix = "2.lstm."
	reverseSuffix   = "_reverse"
)

func lstmParam(kind string, reverse bool) string {
	name := paramLSTMPrefix + kind + "_l0"
	if reverse {
		name += reverseSuffix
	}
	return name
}

// TensorInfo describes one tensor of a weight file.
type TensorInfo struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	// Expected is the shape the model config requires, or nil when the
	// tensor is not used by the model.
	Expected []int `json:"expected,omitempty"`
}

// ExpectedShapes lists every tensor the model needs and its shape.
func ExpectedShapes(cfg Config) map[string][]int {
	h4 := 4 * cfg.HiddenSize
	shapes := map[string][]int{
		ParamEmbedding: {cfg.VocabSize, cfg.EmbedDim},
		ParamFCWeight:  {cfg.NumClasses, 2 * cfg.HiddenSize},
		ParamFCBias:    {cfg.NumClasses},
	}
	for _, reverse := range []bool{false, true} {
		shapes[lstmParam("weight_ih", reverse)] = []int{h4, cfg.EmbedDim}
		shapes[lstmParam("weight_hh", reverse)] = []int{h4, cfg.HiddenSize}
		shapes[lstmParam("bias_ih", reverse)] = []int{h4}
		shapes[lstmParam("bias_hh", reverse)] = []int{h4}
	}
	return shapes
}

// Validate checks that ts contains every tensor the config requires with
// the right shape. All problems are reported together.
func Validate(ts map[string]Tensor, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	expected := ExpectedShapes(cfg)
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		want := expected[name]
		t, ok := ts[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s (expected shape %v)", ErrMissingTensor, name, want))
			continue
		}
		if !slices.Equal(t.Shape, want) {
			errs = append(errs, &ShapeError{Name: name, Want: want, Got: slices.Clone(t.Shape)})
			continue
		}
		if len(t.Data) != t.Len() {
			errs = append(errs, fmt.Errorf("tensor %s: shape %v needs %d values, found %d", name, t.Shape, t.Len(), len(t.Data)))
		}
	}
	return errors.Join(errs...)
}

// Describe lists the tensors of ts sorted by name, with the shapes cfg
// expects for the ones the model uses.
func Describe(ts map[string]Tensor, cfg Config) []TensorInfo {
	expected := ExpectedShapes(cfg)
	infos := make([]TensorInfo, 0, len(ts))
	for name, t := range ts {
		infos = append(infos, TensorInfo{Name: name, Shape: slices.Clone(t.Shape), Expected: expected[name]})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
