package tagger

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/pdevine/tensor"
	"golang.org/x/sync/errgroup"
)

// Model is a bidirectional LSTM character tagger. It is read-only after
// construction and safe for concurrent use.
type Model struct {
	cfg    Config
	device Device
	logger *slog.Logger

	embedding []float32 // VocabSize x EmbedDim
	dirs      [2]lstmDirection

	fcT    *tensor.Dense // 2*HiddenSize x NumClasses
	fcBias []float32
}

// lstmDirection holds the weights of one LSTM direction. Gates are laid out
// in torch order: input, forget, cell, output.
type lstmDirection struct {
	reverse bool
	wihT    *tensor.Dense // EmbedDim x 4*HiddenSize
	whh     []float32     // 4*HiddenSize x HiddenSize, row-major
	bias    []float32     // bias_ih + bias_hh
}

// Load reads a weight file and builds a Model. Any missing or
// mis-shaped tensor is reported and no model is returned.
func Load(path string, cfg Config, opts ...Option) (*Model, error) {
	ts, err := ReadTensors(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights %s: %w", path, err)
	}
	m, err := New(ts, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading weights %s: %w", path, err)
	}
	return m, nil
}

// New builds a Model from named tensors. Tensors the model does not use
// are ignored.
func New(ts map[string]Tensor, cfg Config, opts ...Option) (*Model, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := Validate(ts, cfg); err != nil {
		return nil, err
	}

	expected := ExpectedShapes(cfg)
	var unused []string
	for name := range ts {
		if _, ok := expected[name]; !ok {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		o.logger.Debug("ignoring unused tensors", "names", unused)
	}

	m := &Model{
		cfg:       cfg,
		device:    o.device,
		logger:    o.logger,
		embedding: cloneData(ts[ParamEmbedding]),
		fcBias:    cloneData(ts[ParamFCBias]),
	}

	h4 := 4 * cfg.HiddenSize
	for i, reverse := range []bool{false, true} {
		wih := ts[lstmParam("weight_ih", reverse)]
		bih := ts[lstmParam("bias_ih", reverse)]
		bhh := ts[lstmParam("bias_hh", reverse)]

		bias := make([]float32, h4)
		for j := range bias {
			bias[j] = bih.Data[j] + bhh.Data[j]
		}
		m.dirs[i] = lstmDirection{
			reverse: reverse,
			wihT:    transposed(wih.Data, h4, cfg.EmbedDim),
			whh:     cloneData(ts[lstmParam("weight_hh", reverse)]),
			bias:    bias,
		}
	}
	m.fcT = transposed(ts[ParamFCWeight].Data, cfg.NumClasses, 2*cfg.HiddenSize)

	o.logger.Debug("model ready",
		"device", m.device,
		"vocab_size", cfg.VocabSize,
		"embed_dim", cfg.EmbedDim,
		"hidden_size", cfg.HiddenSize,
		"num_classes", cfg.NumClasses)
	return m, nil
}

// Config returns the model dimensions.
func (m *Model) Config() Config {
	return m.cfg
}

// Device returns the execution device.
func (m *Model) Device() Device {
	return m.device
}

// Tag runs the model over ids and returns a softmax distribution per
// position. Dropout is an identity at inference time and is omitted.
func (m *Model) Tag(ids []int) ([][]float32, error) {
	steps := len(ids)
	if steps == 0 {
		return [][]float32{}, nil
	}

	e := m.cfg.EmbedDim
	xs := make([]float32, steps*e)
	for t, id := range ids {
		if id < 0 || id >= m.cfg.VocabSize {
			return nil, fmt.Errorf("%w: id %d at position %d (vocab size %d)", ErrIDOutOfRange, id, t, m.cfg.VocabSize)
		}
		copy(xs[t*e:(t+1)*e], m.embedding[id*e:(id+1)*e])
	}

	h := m.cfg.HiddenSize
	hidden := make([]float32, steps*2*h)

	var g errgroup.Group
	for i := range m.dirs {
		d := &m.dirs[i]
		g.Go(func() error {
			x := tensor.New(tensor.WithShape(steps, e), tensor.WithBacking(xs))
			return d.run(x, steps, h, hidden, i*h)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hs := tensor.New(tensor.WithShape(steps, 2*h), tensor.WithBacking(hidden))
	out, err := tensor.MatMul(hs, m.fcT)
	if err != nil {
		return nil, fmt.Errorf("classifier projection: %w", err)
	}
	logits, ok := out.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("classifier projection: unexpected data type %T", out.Data())
	}

	c := m.cfg.NumClasses
	probs := make([][]float32, steps)
	for t := range probs {
		row := logits[t*c : (t+1)*c]
		for j := range row {
			row[j] += m.fcBias[j]
		}
		probs[t] = softmax(row)
	}
	return probs, nil
}

// run computes the hidden states of one direction and writes them into
// out, which is laid out as steps rows of 2*h columns starting at column
// offset.
func (d *lstmDirection) run(x *tensor.Dense, steps, h int, out []float32, offset int) error {
	pre, err := tensor.MatMul(x, d.wihT)
	if err != nil {
		return fmt.Errorf("input projection: %w", err)
	}
	inputs, ok := pre.Data().([]float32)
	if !ok {
		return fmt.Errorf("input projection: unexpected data type %T", pre.Data())
	}

	h4 := 4 * h
	state := make([]float32, h)
	cell := make([]float32, h)
	gates := make([]float32, h4)

	for step := 0; step < steps; step++ {
		t := step
		if d.reverse {
			t = steps - 1 - step
		}

		in := inputs[t*h4 : (t+1)*h4]
		for j := 0; j < h4; j++ {
			sum := in[j] + d.bias[j]
			w := d.whh[j*h : (j+1)*h]
			for k, v := range state {
				sum += w[k] * v
			}
			gates[j] = sum
		}

		for k := 0; k < h; k++ {
			i := sigmoid(gates[k])
			f := sigmoid(gates[h+k])
			g := tanh(gates[2*h+k])
			o := sigmoid(gates[3*h+k])
			cell[k] = f*cell[k] + i*g
			state[k] = o * tanh(cell[k])
		}

		copy(out[t*2*h+offset:t*2*h+offset+h], state)
	}
	return nil
}

// transposed returns the rows x cols matrix data as a cols x rows tensor.
func transposed(data []float32, rows, cols int) *tensor.Dense {
	t := make([]float32, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t[c*rows+r] = data[r*cols+c]
		}
	}
	return tensor.New(tensor.WithShape(cols, rows), tensor.WithBacking(t))
}

func cloneData(t Tensor) []float32 {
	return append([]float32(nil), t.Data...)
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// softmax returns a normalized copy of row.
func softmax(row []float32) []float32 {
	maxV := row[0]
	for _, v := range row[1:] {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float32, len(row))
	var sum float64
	for j, v := range row {
		ev := math.Exp(float64(v - maxV))
		out[j] = float32(ev)
		sum += ev
	}
	for j := range out {
		out[j] = float32(float64(out[j]) / sum)
	}
	return out
}
