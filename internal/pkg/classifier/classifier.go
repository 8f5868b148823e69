package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"gorgonia.org/tensor"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

var (
	ErrModelNotLoaded   = errors.New("model not loaded")
	ErrDecodeImage      = errors.New("cannot identify image file")
	ErrUnexpectedOutput = errors.New("unexpected model output")
)

// classNames is the order of the model's output vector.
var classNames = []model.Label{
	model.LabelHazardous,
	model.LabelOrganic,
	model.LabelOther,
	model.LabelRecycle,
}

type runner interface {
	Run(input tensor.Tensor) ([]float32, error)
}

type service struct {
	mu     sync.RWMutex
	runner runner
	logger *zap.Logger
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

func withRunner(r runner) Option {
	return func(s *service) {
		s.runner = r
	}
}

func New(opts ...Option) *service {
	s := &service{logger: zap.L()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadFile reads an ONNX model from disk and swaps it in.
func (s *service) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model %s: %w", path, err)
	}
	r, err := newONNXRunner(b)
	if err != nil {
		return fmt.Errorf("load model %s: %w", path, err)
	}
	s.mu.Lock()
	s.runner = r
	s.mu.Unlock()
	s.logger.Info("model loaded", zap.String("path", path), zap.Int("bytes", len(b)))
	return nil
}

func (s *service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner != nil
}

func (s *service) Predict(ctx context.Context, data []byte) (*model.Prediction, error) {
	s.mu.RLock()
	r := s.runner
	s.mu.RUnlock()
	if r == nil {
		return nil, ErrModelNotLoaded
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeImage, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := tensor.New(
		tensor.WithShape(1, inputSize, inputSize, 3),
		tensor.WithBacking(preprocess(img)),
	)
	scores, err := r.Run(input)
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}

	pred, err := toPrediction(scores)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("image classified",
		zap.String("format", format),
		zap.Stringer("class", pred.Label),
		zap.Float64("confidence", pred.Confidences[pred.Label]),
	)
	return pred, nil
}

func toPrediction(scores []float32) (*model.Prediction, error) {
	if len(scores) != len(classNames) {
		return nil, fmt.Errorf("%w: got %d scores for %d classes", ErrUnexpectedOutput, len(scores), len(classNames))
	}
	best := 0
	confidences := make(map[model.Label]float64, len(classNames))
	for i, score := range scores {
		confidences[classNames[i]] = float64(score) * 100
		if score > scores[best] {
			best = i
		}
	}
	return &model.Prediction{Label: classNames[best], Confidences: confidences}, nil
}

type onnxRunner struct {
	// a gorgonnx graph is not safe for concurrent runs
	mu      sync.Mutex
	backend *gorgonnx.Graph
	model   *onnx.Model
}

func newONNXRunner(b []byte) (*onnxRunner, error) {
	backend := gorgonnx.NewGraph()
	m := onnx.NewModel(backend)
	if err := m.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &onnxRunner{backend: backend, model: m}, nil
}

func (r *onnxRunner) Run(input tensor.Tensor) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.model.SetInput(0, input); err != nil {
		return nil, err
	}
	if err := r.backend.Run(); err != nil {
		return nil, err
	}
	outputs, err := r.model.GetOutputTensors()
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no output tensors", ErrUnexpectedOutput)
	}
	scores, ok := outputs[0].Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: output is %T", ErrUnexpectedOutput, outputs[0].Data())
	}
	out := make([]float32, len(scores))
	copy(out, scores)
	return out, nil
}
