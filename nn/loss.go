package nn

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownLoss = errors.New("unknown loss selector")

type Loss uint8

const (
	CrossEntropy Loss = iota
	LabelSmoothingCE
	FocalCE
	WeightedCE
)

const (
	smoothingEps = 0.1
	focalAlpha   = 1.0
	focalGamma   = 2.0
	// WeightedCE doubles the penalty on class 0.
	weightedClassZero = 2.0
)

func ParseLoss(s string) (Loss, error) {
	switch strings.ToUpper(s) {
	case "CE":
		return CrossEntropy, nil
	case "LSCE":
		return LabelSmoothingCE, nil
	case "FC":
		return FocalCE, nil
	case "WCE":
		return WeightedCE, nil
	default:
		return CrossEntropy, fmt.Errorf("%w: %q", ErrUnknownLoss, s)
	}
}

func (l Loss) String() string {
	switch l {
	case CrossEntropy:
		return "CE"
	case LabelSmoothingCE:
		return "LSCE"
	case FocalCE:
		return "FC"
	case WeightedCE:
		return "WCE"
	default:
		return "UNKNOWN"
	}
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	p := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		p[i] = math.Exp(v - max)
		sum += p[i]
	}
	for i := range p {
		p[i] /= sum
	}

	return p
}

// Grad returns the loss value for a single example and its gradient with
// respect to the logits.
func (l Loss) Grad(logits []float64, label int) (float64, []float64) {
	p := softmax(logits)
	classes := len(logits)
	grad := make([]float64, classes)

	const tiny = 1e-12

	switch l {
	case LabelSmoothingCE:
		loss := 0.0
		for j := range grad {
			q := smoothingEps / float64(classes)
			if j == label {
				q += 1 - smoothingEps
			}
			loss -= q * math.Log(p[j]+tiny)
			grad[j] = p[j] - q
		}

		return loss, grad
	case FocalCE:
		pt := p[label] + tiny
		ce := -math.Log(pt)
		mod := math.Pow(1-pt, focalGamma)
		loss := focalAlpha * mod * ce

		// dL/dpt, then chain through dpt/dlogit_j = pt*(1{j==label} - p_j).
		dldpt := focalAlpha * (-focalGamma*math.Pow(1-pt, focalGamma-1)*ce - mod/pt)
		for j := range grad {
			ind := 0.0
			if j == label {
				ind = 1.0
			}
			grad[j] = dldpt * pt * (ind - p[j])
		}

		return loss, grad
	case WeightedCE:
		w := 1.0
		if label == 0 {
			w = weightedClassZero
		}
		loss := -w * math.Log(p[label]+tiny)
		for j := range grad {
			grad[j] = w * p[j]
		}
		grad[label] -= w

		return loss, grad
	default: // CrossEntropy
		loss := -math.Log(p[label] + tiny)
		copy(grad, p)
		grad[label]--

		return loss, grad
	}
}

// Value computes the loss for a single example without gradients, used on
// the validation and test passes.
func (l Loss) Value(logits []float64, label int) float64 {
	v, _ := l.Grad(logits, label)

	return v
}
