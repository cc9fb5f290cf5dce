// Package engine runs the Richardson-Lucy deconvolution iteration and its
// convolve-only counterpart, grounded on
// original_source/deconvolve/cpp/src/deconvolve_priv.hpp/.cpp.
package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/iocbio/deconvolve/psf"
	"github.com/iocbio/deconvolve/settings"
	"github.com/iocbio/deconvolve/voxel"
)

// ErrNegativeLambda reports that the first regularization estimate of
// lambda came out negative (or non-finite), an unrecoverable condition.
var ErrNegativeLambda = errors.New("engine: first regularization estimate is negative")

// Callback receives one readout per iteration, called before that
// iteration's update runs. At k==0 only snr is meaningful; the rest are
// zero except lambdaFactor, which still holds its -1 sentinel. Returning 0 stops the engine, which returns the current estimate
// as-is; any non-zero value continues.
type Callback func(k int, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr float64) int

// lambdaStackSize is the default callback's decreasing-lambda window,
// matching deconvolve_priv.hpp's const_lambda_stack_size.
const lambdaStackSize = 3

// DefaultMaxIterations is the default callback's iteration ceiling,
// matching deconvolve_priv.hpp's const_max_iterations.
const DefaultMaxIterations = 100

// Engine holds the configuration a single convolve/deconvolve call needs:
// the PSF to look up an OTF from, the settings snapshot binding the FFT
// plan factories, whether TV regularization is enabled, an SNR override,
// an iteration ceiling, and an optional user callback.
type Engine struct {
	PSF           *psf.PSF
	Settings      *settings.Snapshot
	Regularize    bool
	SNR           *float64
	MaxIterations int
	Callback      Callback

	// Out receives the default callback's textual readouts when Callback
	// is nil. Defaults to os.Stdout.
	Out io.Writer
}

// Convolve runs the engine's first-estimate step alone: look up the OTF,
// build an Image from data, convolve it with the OTF, and return the
// resulting flat buffer. Equivalent to Deconvolve without iterating.
func (e *Engine) Convolve(data []float64, shape voxel.Shape, pitch voxel.Pitch) ([]float64, error) {
	otf, err := e.PSF.OTF(e.Settings, shape, pitch)
	if err != nil {
		return nil, err
	}

	image, err := voxel.New(e.Settings, data, shape, pitch)
	if err != nil {
		return nil, err
	}

	if err := image.Convolve(otf); err != nil {
		return nil, err
	}

	out := make([]float64, shape.Size())
	if err := image.Export(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deconvolve runs the full Richardson-Lucy iteration with optional TV
// regularization and returns the reconstructed image.
func (e *Engine) Deconvolve(data []float64, shape voxel.Shape, pitch voxel.Pitch) ([]float64, error) {
	otf, err := e.PSF.OTF(e.Settings, shape, pitch)
	if err != nil {
		return nil, err
	}

	image, err := voxel.New(e.Settings, data, shape, pitch)
	if err != nil {
		return nil, err
	}
	oC, err := voxel.New(e.Settings, data, shape, pitch)
	if err != nil {
		return nil, err
	}
	o0, err := voxel.New(e.Settings, data, shape, pitch)
	if err != nil {
		return nil, err
	}
	oM1, err := voxel.New(e.Settings, nil, shape, pitch)
	if err != nil {
		return nil, err
	}
	div, err := voxel.New(e.Settings, nil, shape, pitch)
	if err != nil {
		return nil, err
	}

	snr, err := e.snr(oC)
	if err != nil {
		return nil, err
	}

	// first estimate: the raw input convolved with the OTF
	if err := oC.Convolve(otf); err != nil {
		return nil, err
	}

	callback := e.Callback
	if callback == nil {
		out := e.Out
		if out == nil {
			out = os.Stdout
		}
		callback = newDefaultCallback(out, e.maxIterations(), e.Regularize).run
	}

	var (
		min, max, sum          float64
		nrm2Prev, nrm2PrevPrev float64
		lambda, lambdaFactor   = 0.0, -1.0
	)

	for k := 0; ; k++ {
		if callback(k, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr) == 0 {
			break
		}

		if err := oC.Convolve(otf); err != nil {
			return nil, err
		}
		if err := oC.InvDivideImage(image); err != nil {
			return nil, err
		}
		if err := oC.ConvolveConj(otf); err != nil {
			return nil, err
		}

		if !e.Regularize {
			if err := oC.ProdImage(o0); err != nil {
				return nil, err
			}
		} else {
			if err := div.DivUnitGrad(o0); err != nil {
				return nil, err
			}

			lambdaRaw, err := voxel.LambdaLSQ(oC, div)
			if err != nil {
				return nil, err
			}

			if k == 0 && (lambdaRaw < 0 || math.IsNaN(lambdaRaw)) {
				return nil, fmt.Errorf("%w: lambda=%g", ErrNegativeLambda, lambdaRaw)
			}
			if k == 0 {
				lambdaFactor = 50 / (snr * lambdaRaw)
			}
			if lambdaRaw < 0 || math.IsNaN(lambdaRaw) {
				lambdaRaw = 0
			}
			lambda = lambdaRaw * lambdaFactor

			if err := oC.ProdRegularized(o0, lambda, div); err != nil {
				return nil, err
			}
		}

		min, max, sum, err = oC.Stats()
		if err != nil {
			return nil, err
		}

		nrm2Prev, err = oC.NRM2(o0)
		if err != nil {
			return nil, err
		}
		if k > 1 {
			nrm2PrevPrev, err = oC.NRM2(oM1)
			if err != nil {
				return nil, err
			}
		}

		oM1.Swap(o0)
		if err := o0.CopyData(oC); err != nil {
			return nil, err
		}
	}

	out := make([]float64, shape.Size())
	if err := oC.Export(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) snr(oC *voxel.Buffer) (float64, error) {
	if e.SNR != nil {
		return *e.SNR, nil
	}
	return oC.SNR(1)
}

func (e *Engine) maxIterations() int {
	if e.MaxIterations > 0 {
		return e.MaxIterations
	}
	return DefaultMaxIterations
}

// defaultCallback reproduces callback_default(): prints one readout line
// per iteration and stops once the bounded lambda history is full and
// strictly decreasing, or once the iteration ceiling is reached.
type defaultCallback struct {
	out           io.Writer
	maxIterations int
	regularize    bool
	history       []float64
}

func newDefaultCallback(out io.Writer, maxIterations int, regularize bool) *defaultCallback {
	return &defaultCallback{out: out, maxIterations: maxIterations, regularize: regularize}
}

func (c *defaultCallback) run(k int, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr float64) int {
	done := false
	if c.regularize && len(c.history) >= lambdaStackSize {
		done = true
		for _, v := range c.history {
			done = done && v > lambda
		}
	}

	fmt.Fprintf(c.out, "Iter: %d Min/Max/Sum: %g %g %g  Nrm2 (i)-(i-1)/(i)-(i-2): %g %g  Lambda: %g  LFactor: %g  SNR: %g\n",
		k, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr)

	c.history = append(c.history, lambda)
	if len(c.history) > lambdaStackSize {
		c.history = c.history[1:]
	}

	if done || k >= c.maxIterations {
		return 0
	}
	return 1
}
