package nn

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var ErrUnknownOptimizer = errors.New("unknown optimizer selector")

type OptimizerKind uint8

const (
	SGD OptimizerKind = iota
	SGDMomentum
	Adam
	AdamW
	RMSProp
)

const (
	momentum    = 0.9
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEps     = 1e-8
	adamWDecay  = 0.01
	rmsPropRho  = 0.99
	rmsPropEps  = 1e-8
)

func ParseOptimizer(s string) (OptimizerKind, error) {
	switch strings.ToUpper(s) {
	case "SGD":
		return SGD, nil
	case "SGDM":
		return SGDMomentum, nil
	case "ADAM":
		return Adam, nil
	case "ADAMW":
		return AdamW, nil
	case "RMSP":
		return RMSProp, nil
	default:
		return SGD, fmt.Errorf("%w: %q", ErrUnknownOptimizer, s)
	}
}

func (k OptimizerKind) String() string {
	switch k {
	case SGD:
		return "SGD"
	case SGDMomentum:
		return "SGDM"
	case Adam:
		return "ADAM"
	case AdamW:
		return "ADAMW"
	case RMSProp:
		return "RMSP"
	default:
		return "UNKNOWN"
	}
}

// Optimizer applies one update step to a named parameter tensor in place.
// Optimizer state is owned exclusively by one worker and never shared.
type Optimizer interface {
	Step(name string, params, grads []float64)
}

func NewOptimizer(kind OptimizerKind, lr float64) Optimizer {
	switch kind {
	case SGDMomentum:
		return &sgdMomentum{lr: lr, vel: make(map[string][]float64)}
	case Adam:
		return &adam{lr: lr, m: make(map[string][]float64), v: make(map[string][]float64), t: make(map[string]int)}
	case AdamW:
		return &adam{lr: lr, decoupled: true, m: make(map[string][]float64), v: make(map[string][]float64), t: make(map[string]int)}
	case RMSProp:
		return &rmsProp{lr: lr, sq: make(map[string][]float64)}
	default:
		return &sgd{lr: lr}
	}
}

type sgd struct {
	lr float64
}

func (o *sgd) Step(_ string, params, grads []float64) {
	floats.AddScaled(params, -o.lr, grads)
}

type sgdMomentum struct {
	lr  float64
	vel map[string][]float64
}

func (o *sgdMomentum) Step(name string, params, grads []float64) {
	v, ok := o.vel[name]
	if !ok {
		v = make([]float64, len(params))
		o.vel[name] = v
	}

	floats.Scale(momentum, v)
	floats.Add(v, grads)
	floats.AddScaled(params, -o.lr, v)
}

type adam struct {
	lr        float64
	decoupled bool
	m, v      map[string][]float64
	t         map[string]int
}

func (o *adam) Step(name string, params, grads []float64) {
	m, ok := o.m[name]
	if !ok {
		m = make([]float64, len(params))
		o.m[name] = m
		o.v[name] = make([]float64, len(params))
	}
	v := o.v[name]

	o.t[name]++
	t := float64(o.t[name])

	if o.decoupled {
		floats.AddScaled(params, -o.lr*adamWDecay, params)
	}

	for i := range params {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*grads[i]
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*grads[i]*grads[i]

		mHat := m[i] / (1 - math.Pow(adamBeta1, t))
		vHat := v[i] / (1 - math.Pow(adamBeta2, t))

		params[i] -= o.lr * mHat / (math.Sqrt(vHat) + adamEps)
	}
}

type rmsProp struct {
	lr float64
	sq map[string][]float64
}

func (o *rmsProp) Step(name string, params, grads []float64) {
	sq, ok := o.sq[name]
	if !ok {
		sq = make([]float64, len(params))
		o.sq[name] = sq
	}

	for i := range params {
		sq[i] = rmsPropRho*sq[i] + (1-rmsPropRho)*grads[i]*grads[i]
		params[i] -= o.lr * grads[i] / (math.Sqrt(sq[i]) + rmsPropEps)
	}
}
