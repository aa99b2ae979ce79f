// Package tagger assigns a structural tag distribution to every character
// of an encoded sequence.
//
// The model is a character embedding followed by a single-layer
// bidirectional LSTM and a linear classifier with a per-position softmax.
// Weights come from a state dict saved by the original training code,
// either as a torch pickle or converted to safetensors.
package tagger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matsen/citextract/internal/label"
)

// Tagger maps an id sequence to one probability row per position.
// Each row has label.NumTags entries that sum to 1.
type Tagger interface {
	Tag(ids []int) ([][]float32, error)
}

// Default model dimensions.
const (
	DefaultEmbedDim   = 128
	DefaultHiddenSize = 128
)

// Config holds the model dimensions that a weight file must match.
type Config struct {
	VocabSize  int `json:"vocab_size"`
	EmbedDim   int `json:"embed_dim"`
	HiddenSize int `json:"hidden_size"`
	NumClasses int `json:"num_classes"`
}

// DefaultConfig returns the standard dimensions for a vocabulary of the
// given size.
func DefaultConfig(vocabSize int) Config {
	return Config{
		VocabSize:  vocabSize,
		EmbedDim:   DefaultEmbedDim,
		HiddenSize: DefaultHiddenSize,
		NumClasses: label.NumTags,
	}
}

func (c Config) validate() error {
	if c.VocabSize <= 0 || c.EmbedDim <= 0 || c.HiddenSize <= 0 || c.NumClasses <= 0 {
		return fmt.Errorf("invalid model config %+v: all dimensions must be positive", c)
	}
	return nil
}

// Device selects where inference runs. Only the CPU backend exists; the
// value never affects results.
type Device string

// DeviceCPU runs inference on the CPU.
const DeviceCPU Device = "cpu"

// ParseDevice validates a device name. The empty string and "auto" select
// the CPU.
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", string(DeviceCPU):
		return DeviceCPU, nil
	default:
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnsupportedDevice, s, DeviceCPU)
	}
}

// Errors returned while loading or running a model.
var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrUnsupportedDType  = errors.New("unsupported tensor data type")
	ErrUnsupportedDevice = errors.New("unsupported device")
	ErrMissingTensor     = errors.New("missing tensor")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrNonContiguous     = errors.New("non-contiguous tensor")
	ErrIDOutOfRange      = errors.New("id out of vocabulary range")
)

// ShapeError reports a tensor whose shape differs from what the model
// config requires.
type ShapeError struct {
	Name string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tensor %s: %v: expected %v, found %v", e.Name, ErrShapeMismatch, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

type options struct {
	device Device
	logger *slog.Logger
}

// Option configures model loading.
type Option func(*options)

// WithDevice selects the execution device.
func WithDevice(d Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithLogger sets the logger used during loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{device: DeviceCPU, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	d, err := ParseDevice(string(o.device))
	if err != nil {
		return o, err
	}
	o.device = d
	return o, nil
}
