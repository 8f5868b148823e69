package classifier

import (
	"image"

	"golang.org/x/image/draw"
)

const inputSize = 224

// ImageNet channel means in BGR order, as used by ResNet50 "caffe" preprocessing.
var caffeMean = [3]float32{103.939, 116.779, 123.68}

// preprocess resizes img to the model input and returns a 1x224x224x3 BGR buffer with
// the channel means removed. Alpha is dropped.
func preprocess(img image.Image) []float32 {
	dst := image.NewNRGBA(image.Rect(0, 0, inputSize, inputSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]float32, inputSize*inputSize*3)
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			p := dst.PixOffset(x, y)
			i := (y*inputSize + x) * 3
			out[i] = float32(dst.Pix[p+2]) - caffeMean[0]
			out[i+1] = float32(dst.Pix[p+1]) - caffeMean[1]
			out[i+2] = float32(dst.Pix[p]) - caffeMean[2]
		}
	}
	return out
}
