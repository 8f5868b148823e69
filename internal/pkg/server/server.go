package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/auth"
	"github.com/anicoll/waste-bin-controller/internal/pkg/errs"
	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
	"github.com/anicoll/waste-bin-controller/pkg/api"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultEventLimit     = 50
	maxEventLimit         = 500
)

var _ api.ServerInterface = (*server)(nil)

type binGate interface {
	OpenBin(ctx context.Context, index model.BinIndex) (*model.BinCommandResult, error)
	OpenBinForLabel(ctx context.Context, label model.Label) (*model.BinCommandResult, error)
}

type deviceLink interface {
	IsConnected() bool
	DeviceStatus() string
	CurrentBinState() string
	ConnectionInfo() model.ConnectionInfo
}

type classifier interface {
	Loaded() bool
	Predict(ctx context.Context, data []byte) (*model.Prediction, error)
}

type eventStore interface {
	GetEvents(ctx context.Context, limit int) (model.BinEvents, error)
}

type metricsRecorder interface {
	ObserveRequest(route, method string, code int, d time.Duration)
	ObservePrediction(class model.Label, d time.Duration)
	Handler() http.Handler
}

type server struct {
	gate       binGate
	link       deviceLink
	classifier classifier

	events  eventStore
	metrics metricsRecorder
	stream  http.Handler

	allowedOrigins []string
	apiKeyHash     string
	maxUploadBytes int64
	tokenSecret    string
	tokenTTL       time.Duration

	doc    *openapi3.T
	logger *zap.Logger
}

type Option func(*server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

func WithEventStore(store eventStore) Option {
	return func(s *server) {
		s.events = store
	}
}

func WithMetrics(m metricsRecorder) Option {
	return func(s *server) {
		s.metrics = m
	}
}

func WithStream(h http.Handler) Option {
	return func(s *server) {
		s.stream = h
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *server) {
		s.allowedOrigins = origins
	}
}

// WithAPIKeyHash protects the bin opening routes with a bcrypt hashed key.
func WithAPIKeyHash(hash string) Option {
	return func(s *server) {
		s.apiKeyHash = hash
	}
}

// WithStreamTokens requires a token from POST /stream_token to open /ws.
func WithStreamTokens(secret string, ttl time.Duration) Option {
	return func(s *server) {
		s.tokenSecret = secret
		s.tokenTTL = ttl
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func New(ctx context.Context, gate binGate, link deviceLink, cls classifier, opts ...Option) (*server, error) {
	doc, err := loadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	s := &server{
		gate:           gate,
		link:           link,
		classifier:     cls,
		maxUploadBytes: defaultMaxUploadBytes,
		doc:            doc,
		logger:         zap.L(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Router returns the complete HTTP handler, CORS included.
func (s *server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.HandleFunc("/openapi.json", s.GetOpenAPI).Methods(http.MethodGet)

	h := api.HandlerWithOptions(s, api.GorillaServerOptions{
		BaseRouter:       r,
		Middlewares:      []api.MiddlewareFunc{s.requireAPIKey},
		ErrorHandlerFunc: s.handleParamError,
	})
	return CORSMiddleware(s.allowedOrigins)(h)
}

func (s *server) GetHealthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		ModelLoaded:   lo.ToPtr(s.classifier.Loaded()),
		MqttConnected: lo.ToPtr(s.link.IsConnected()),
		DeviceStatus:  lo.ToPtr(s.link.DeviceStatus()),
	})
}

func (s *server) GetBinStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.BinStatusResponse{BinStatus: lo.ToPtr(s.link.CurrentBinState())})
}

func (s *server) GetConnectionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.link.ConnectionInfo())
}

func (s *server) PostControlBin(w http.ResponseWriter, r *http.Request) {
	req, err := unmarshalPayload[api.PostControlBinJSONRequestBody](r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if req.BinIndex == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Field required: bin_index")
		return
	}

	res, err := s.gate.OpenBin(r.Context(), model.BinIndex(*req.BinIndex))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ControlBinResponse{
		Message:   lo.ToPtr("Opened bin " + res.Label.String()),
		BinStatus: lo.ToPtr(res.StatusBefore),
	})
}

func (s *server) PostPredict(w http.ResponseWriter, r *http.Request) {
	pred, ok := s.classify(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.PredictResponse{Class: lo.ToPtr(api.Label(pred.Label))})
}

func (s *server) PostPredictIot(w http.ResponseWriter, r *http.Request) {
	pred, ok := s.classify(w, r)
	if !ok {
		return
	}
	res, err := s.gate.OpenBinForLabel(r.Context(), pred.Label)
	if err != nil {
		s.handleError(w, err)
		return
	}
	// the device reports busy shortly after it receives the command
	writeJSON(w, http.StatusOK, api.PredictIotResponse{
		Class:     lo.ToPtr(api.Label(pred.Label)),
		BinIndex:  lo.ToPtr(int(res.Index)),
		BinOpened: lo.ToPtr(api.Label(res.Label)),
		BinStatus: lo.ToPtr(model.StatusBusy),
	})
}

func (s *server) GetEvents(w http.ResponseWriter, r *http.Request, params api.GetEventsParams) {
	if s.events == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Event log is not configured")
		return
	}
	limit := defaultEventLimit
	if params.Limit != nil {
		if *params.Limit < 1 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(*params.Limit, maxEventLimit)
	}
	events, err := s.events.GetEvents(r.Context(), limit)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEventStream hands the upgrade to the hub, checking the token when stream tokens are on.
func (s *server) GetEventStream(w http.ResponseWriter, r *http.Request, params api.GetEventStreamParams) {
	if s.stream == nil {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	if s.tokenSecret != "" {
		if err := auth.ParseStreamToken(lo.FromPtr(params.Token), s.tokenSecret); err != nil {
			s.logger.Warn("rejected stream connection", zap.Error(err))
			writeDetail(w, http.StatusUnauthorized, "Invalid or missing stream token")
			return
		}
	}
	s.stream.ServeHTTP(w, r)
}

func (s *server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *server) PostStreamToken(w http.ResponseWriter, _ *http.Request) {
	if s.stream == nil || s.tokenSecret == "" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	token, expires, err := auth.IssueStreamToken(s.tokenSecret, s.tokenTTL, time.Now())
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StreamTokenResponse{Token: lo.ToPtr(token), ExpiresAt: lo.ToPtr(expires)})
}

func (s *server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(openapiJSON)
}

// classify reads the uploaded image and runs the model, writing the error response itself.
func (s *server) classify(w http.ResponseWriter, r *http.Request) (*model.Prediction, bool) {
	data, ok := s.readImage(w, r)
	if !ok {
		return nil, false
	}
	start := time.Now()
	pred, err := s.classifier.Predict(r.Context(), data)
	if err != nil {
		s.handleError(w, errs.Upstream(err.Error(), err))
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.ObservePrediction(pred.Label, time.Since(start))
	}
	s.logger.Info("image classified", zap.Stringer("class", pred.Label), zap.Float64("confidence", pred.Confidences[pred.Label]))
	return pred, true
}

func (s *server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.ContentLength > s.maxUploadBytes {
		writeDetail(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return nil, false
		}
		writeDetail(w, http.StatusUnprocessableEntity, "Field required: file")
		return nil, false
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		s.handleError(w, errs.InvalidInput("Uploaded file must be image (.png, .jpg)"))
		return nil, false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.handleError(w, err)
		return nil, false
	}
	return data, true
}

func (s *server) handleError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		detail = "Error: " + detail
	}
	writeDetail(w, status, detail)
}

// handleParamError answers query parameters the generated wrapper could not bind.
func (s *server) handleParamError(w http.ResponseWriter, _ *http.Request, err error) {
	writeDetail(w, http.StatusBadRequest, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, api.ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
