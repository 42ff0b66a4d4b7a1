package soft

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// BlurWeights are the centre and side taps of the 9-tap Gaussian used by the blur shaders.
var BlurWeights = [5]float64{1.0, 0.9, 0.55, 0.18, 0.1}

// blurKernel builds the normalised 9-tap kernel along one axis.
func blurKernel(horizontal bool) *convolution.Kernel {
	var k *convolution.Kernel
	if horizontal {
		k = convolution.NewKernel(9, 1)
	} else {
		k = convolution.NewKernel(1, 9)
	}
	var sum float64
	for i := -4; i <= 4; i++ {
		w := BlurWeights[abs(i)]
		k.Matrix[i+4] = w
		sum += w
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k
}

// blur runs one separable pass. Edges are clamped, alpha is kept.
func blur(src image.Image, horizontal bool) image.Image {
	return convolution.Convolve(src, blurKernel(horizontal), &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: true,
	})
}

// resample scales img to width x height with bilinear filtering, or returns it as is.
func resample(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Linear)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
