package nn

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Classifier head dimensions, shared by every worker so that parameter
// tensors line up during synchronization.
const (
	hidden1 = 120
	hidden2 = 84
)

// State is a snapshot of a network's parameters keyed by tensor name.
// Iteration must use Names so that matching tensors line up across
// agents when averaging.
type State map[string][]float64

// Names returns the tensor names in stable sorted order.
func (s State) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Clone deep-copies the snapshot.
func (s State) Clone() State {
	c := make(State, len(s))
	for name, vals := range s {
		dst := make([]float64, len(vals))
		copy(dst, vals)
		c[name] = dst
	}

	return c
}

type layer struct {
	name    string
	in, out int

	w *mat.Dense
	b []float64

	// Gradient and scratch buffers, owned by the single training
	// goroutine that owns the network.
	dw    []float64
	db    []float64
	x     []float64
	z     []float64
	a     []float64
	delta []float64
}

func newLayer(name string, in, out int, rng *rand.Rand) *layer {
	data := make([]float64, in*out)
	limit := math.Sqrt(6.0 / float64(in+out))
	for i := range data {
		data[i] = rng.Float64()*2*limit - limit
	}

	return &layer{
		name:  name,
		in:    in,
		out:   out,
		w:     mat.NewDense(out, in, data),
		b:     make([]float64, out),
		dw:    make([]float64, in*out),
		db:    make([]float64, out),
		z:     make([]float64, out),
		a:     make([]float64, out),
		delta: make([]float64, out),
	}
}

// Network is a small dense classifier: features -> 120 -> 84 -> classes,
// the classic LeNet-5 head over flattened inputs. It is not safe for
// concurrent use; every worker constructs its own instance.
type Network struct {
	act      Activation
	layers   []*layer
	features int
	classes  int
}

func New(features, classes int, act Activation, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))

	return &Network{
		act:      act,
		features: features,
		classes:  classes,
		layers: []*layer{
			newLayer("fc1", features, hidden1, rng),
			newLayer("fc2", hidden1, hidden2, rng),
			newLayer("fc3", hidden2, classes, rng),
		},
	}
}

func (n *Network) Classes() int { return n.classes }

// Forward computes logits for one input vector and caches intermediate
// values for a subsequent Backward call.
func (n *Network) Forward(x []float64) []float64 {
	in := x
	last := len(n.layers) - 1
	for i, l := range n.layers {
		l.x = in

		zv := mat.NewVecDense(l.out, l.z)
		zv.MulVec(l.w, mat.NewVecDense(l.in, in))
		floats.Add(l.z, l.b)

		if i == last {
			copy(l.a, l.z)
		} else {
			for j, z := range l.z {
				l.a[j] = n.act.apply(z)
			}
		}
		in = l.a
	}

	return n.layers[last].a
}

// Predict returns the argmax class for one input. Inference only: no
// gradient buffers are touched.
func (n *Network) Predict(x []float64) int {
	logits := n.Forward(x)

	best := 0
	for j, v := range logits {
		if v > logits[best] {
			best = j
		}
	}

	return best
}

// Backward accumulates parameter gradients for the cached forward pass.
// dlogits is the loss gradient with respect to the output logits.
func (n *Network) Backward(dlogits []float64) {
	last := len(n.layers) - 1
	copy(n.layers[last].delta, dlogits)

	for li := last; li >= 0; li-- {
		l := n.layers[li]
		wd := l.w.RawMatrix().Data

		for i := 0; i < l.out; i++ {
			d := l.delta[i]
			l.db[i] += d
			row := l.dw[i*l.in : (i+1)*l.in]
			floats.AddScaled(row, d, l.x)
		}

		if li == 0 {
			continue
		}

		prev := n.layers[li-1]
		for j := 0; j < l.in; j++ {
			sum := 0.0
			for i := 0; i < l.out; i++ {
				sum += wd[i*l.in+j] * l.delta[i]
			}
			prev.delta[j] = sum * n.act.derivative(prev.z[j])
		}
	}
}

func (n *Network) zeroGrads() {
	for _, l := range n.layers {
		for i := range l.dw {
			l.dw[i] = 0
		}
		for i := range l.db {
			l.db[i] = 0
		}
	}
}

// TrainBatch runs one optimizer step over a mini-batch and returns the
// mean batch loss. Gradients are averaged across the batch.
func (n *Network) TrainBatch(ds BatchSource, indices []int, loss Loss, opt Optimizer) (float64, int) {
	n.zeroGrads()

	total := 0.0
	correct := 0
	for _, idx := range indices {
		x, y := ds.Example(idx)
		logits := n.Forward(x)

		best := 0
		for j, v := range logits {
			if v > logits[best] {
				best = j
			}
		}
		if best == y {
			correct++
		}

		l, grad := loss.Grad(logits, y)
		total += l
		n.Backward(grad)
	}

	scale := 1.0 / float64(len(indices))
	for _, l := range n.layers {
		floats.Scale(scale, l.dw)
		floats.Scale(scale, l.db)
		opt.Step(l.name+".weight", l.w.RawMatrix().Data, l.dw)
		opt.Step(l.name+".bias", l.b, l.db)
	}

	return total * scale, correct
}

// BatchSource supplies one example by dataset index.
type BatchSource interface {
	Example(i int) (x []float64, y int)
}

// State deep-copies the current parameters into a named snapshot.
func (n *Network) State() State {
	s := make(State, len(n.layers)*2)
	for _, l := range n.layers {
		wd := l.w.RawMatrix().Data
		w := make([]float64, len(wd))
		copy(w, wd)
		b := make([]float64, len(l.b))
		copy(b, l.b)
		s[l.name+".weight"] = w
		s[l.name+".bias"] = b
	}

	return s
}

// LoadState overwrites the network parameters with the snapshot. Tensor
// names and sizes must match the network exactly.
func (n *Network) LoadState(s State) error {
	for _, l := range n.layers {
		w, ok := s[l.name+".weight"]
		if !ok {
			return fmt.Errorf("state missing tensor %s.weight", l.name)
		}
		wd := l.w.RawMatrix().Data
		if len(w) != len(wd) {
			return fmt.Errorf("tensor %s.weight has %d values, want %d", l.name, len(w), len(wd))
		}

		b, ok := s[l.name+".bias"]
		if !ok {
			return fmt.Errorf("state missing tensor %s.bias", l.name)
		}
		if len(b) != len(l.b) {
			return fmt.Errorf("tensor %s.bias has %d values, want %d", l.name, len(b), len(l.b))
		}

		copy(wd, w)
		copy(l.b, b)
	}

	return nil
}
