// Package nn implements the small dense image classifier trained by the
// coordinator: activations, losses and optimizers resolved from closed
// selector sets, and named parameter tensors for weight synchronization.
package nn

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownActivation = errors.New("unknown activation selector")

type Activation uint8

const (
	ReLU Activation = iota
	LeakyReLU
	ELU
	SELU
	GELU
	Mish
)

const (
	leakySlope = 0.01
	eluAlpha   = 1.0
	seluLambda = 1.0507009873554805
	seluAlpha  = 1.6732632423543772
	geluCoef   = 0.7978845608028654 // sqrt(2/pi)
)

// ParseActivation resolves a selector string into an Activation. Unknown
// selectors are rejected before any training starts.
func ParseActivation(s string) (Activation, error) {
	switch strings.ToUpper(s) {
	case "RELU":
		return ReLU, nil
	case "LEAKY_RELU":
		return LeakyReLU, nil
	case "ELU":
		return ELU, nil
	case "SELU":
		return SELU, nil
	case "GELU":
		return GELU, nil
	case "MISH":
		return Mish, nil
	default:
		return ReLU, fmt.Errorf("%w: %q", ErrUnknownActivation, s)
	}
}

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "RELU"
	case LeakyReLU:
		return "LEAKY_RELU"
	case ELU:
		return "ELU"
	case SELU:
		return "SELU"
	case GELU:
		return "GELU"
	case Mish:
		return "MISH"
	default:
		return "UNKNOWN"
	}
}

func (a Activation) apply(x float64) float64 {
	switch a {
	case ReLU:
		if x > 0 {
			return x
		}

		return 0
	case LeakyReLU:
		if x > 0 {
			return x
		}

		return leakySlope * x
	case ELU:
		if x > 0 {
			return x
		}

		return eluAlpha * (math.Exp(x) - 1)
	case SELU:
		if x > 0 {
			return seluLambda * x
		}

		return seluLambda * seluAlpha * (math.Exp(x) - 1)
	case GELU:
		u := geluCoef * (x + 0.044715*x*x*x)

		return 0.5 * x * (1 + math.Tanh(u))
	case Mish:
		sp := math.Log1p(math.Exp(x))

		return x * math.Tanh(sp)
	default:
		return x
	}
}

// derivative is taken with respect to the pre-activation input.
func (a Activation) derivative(x float64) float64 {
	switch a {
	case ReLU:
		if x > 0 {
			return 1
		}

		return 0
	case LeakyReLU:
		if x > 0 {
			return 1
		}

		return leakySlope
	case ELU:
		if x > 0 {
			return 1
		}

		return eluAlpha * math.Exp(x)
	case SELU:
		if x > 0 {
			return seluLambda
		}

		return seluLambda * seluAlpha * math.Exp(x)
	case GELU:
		u := geluCoef * (x + 0.044715*x*x*x)
		t := math.Tanh(u)

		return 0.5*(1+t) + 0.5*x*(1-t*t)*geluCoef*(1+3*0.044715*x*x)
	case Mish:
		sp := math.Log1p(math.Exp(x))
		t := math.Tanh(sp)
		sig := 1 / (1 + math.Exp(-x))

		return t + x*(1-t*t)*sig
	default:
		return 1
	}
}
