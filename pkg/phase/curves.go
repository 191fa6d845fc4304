package phase

import (
	"math"
	"strconv"
	"strings"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// Timing curves transform linear animation progress into eased motion.
//
// Each curve takes a value t in [0, 1] and returns a transformed value.
// Set a [Config]'s TimingFunction to apply easing, or resolve a CSS
// animation-timing-function string with [TimingFunction].

// Linear returns linear progress (no easing).
func Linear(t float64) float64 {
	return t
}

// Ease is a standard cubic bezier curve for general-purpose easing.
// Equivalent to CSS ease.
var Ease = CubicBezier(0.25, 0.1, 0.25, 1.0)

// EaseIn starts slowly and accelerates. Equivalent to CSS ease-in.
var EaseIn = CubicBezier(0.4, 0.0, 1.0, 1.0)

// EaseOut starts quickly and decelerates. Equivalent to CSS ease-out.
var EaseOut = CubicBezier(0.0, 0.0, 0.2, 1.0)

// EaseInOut starts and ends slowly with acceleration in the middle.
// Equivalent to CSS ease-in-out.
var EaseInOut = CubicBezier(0.4, 0.0, 0.2, 1.0)

// TimingFunction resolves a CSS animation-timing-function value to a
// curve. It accepts "linear", "ease", "ease-in", "ease-out",
// "ease-in-out", and "cubic-bezier(x1, y1, x2, y2)". An empty name
// resolves to Linear.
func TimingFunction(name string) (func(float64) float64, error) {
	switch strings.TrimSpace(name) {
	case "", "linear":
		return Linear, nil
	case "ease":
		return Ease, nil
	case "ease-in":
		return EaseIn, nil
	case "ease-out":
		return EaseOut, nil
	case "ease-in-out":
		return EaseInOut, nil
	}
	if fn, ok := parseCubicBezier(name); ok {
		return fn, nil
	}
	return nil, &motionerrors.ConfigError{
		Op:     "phase.TimingFunction",
		Field:  "name",
		Reason: "unknown timing function",
		Value:  name,
	}
}

// parseCubicBezier parses "cubic-bezier(x1, y1, x2, y2)".
func parseCubicBezier(name string) (func(float64) float64, bool) {
	s := strings.TrimSpace(name)
	if !strings.HasPrefix(s, "cubic-bezier(") || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	inner := s[len("cubic-bezier(") : len(s)-1]
	parts := strings.Split(inner, ",")
	if len(parts) != 4 {
		return nil, false
	}
	var args [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, false
		}
		args[i] = v
	}
	return CubicBezier(args[0], args[1], args[2], args[3]), true
}

// CubicBezier returns a cubic-bezier easing function matching CSS
// cubic-bezier(). The parameters define the two control points (x1,y1)
// and (x2,y2); the curve starts at (0,0) and ends at (1,1).
func CubicBezier(x1, y1, x2, y2 float64) func(float64) float64 {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		// Newton-Raphson converges quickly for most values.
		for i := 0; i < 8; i++ {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return sampleCurve(y1, y2, clampUnit(u))
			}
			dx := sampleCurveDerivative(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Fallback to bisection to guarantee a stable solution in [0,1].
		lo, hi := 0.0, 1.0
		u = clampUnit(u)
		for i := 0; i < 12; i++ {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) * 0.5
		}

		return sampleCurve(y1, y2, u)
	}
}

func sampleCurve(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleCurveDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
