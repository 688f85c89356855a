package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/copyleftdev/tourclimb/internal/config"
	apierrors "github.com/copyleftdev/tourclimb/internal/errors"
	"github.com/copyleftdev/tourclimb/internal/logging"
	"github.com/copyleftdev/tourclimb/internal/metrics"
	"github.com/copyleftdev/tourclimb/internal/report"
	"github.com/copyleftdev/tourclimb/internal/store"
	"github.com/copyleftdev/tourclimb/internal/tsp"
)

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// RunStore persists finished runs. It is optional.
type RunStore interface {
	Save(ctx context.Context, r *store.Run) error
	Get(ctx context.Context, id string) (*store.Run, error)
	List(ctx context.Context, limit int) ([]*store.Run, error)
}

// RunState tracks one solve job. All fields are guarded by Server.runsMu.
type RunState struct {
	ID          string
	Status      string
	Algorithm   tsp.Algorithm
	Search      searchSettings
	Names       []string
	Distances   *tsp.Distances
	StartTime   time.Time
	EndTime     *time.Time
	Result      *tsp.Result
	Err         string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server exposes the solver over HTTP and JSON-RPC 2.0. Jobs run in the
// background; at most cfg.Search.Workers of them search at once.
type Server struct {
	cfg     *config.Config
	logger  Logger
	engine  *zap.Logger
	metrics *metrics.Metrics
	runs    RunStore

	runsMu sync.RWMutex
	states map[string]*RunState

	slots chan struct{}
	wg    sync.WaitGroup
	seq   atomic.Uint64
}

// NewServer creates a server. m and runs may be nil.
func NewServer(cfg *config.Config, logger Logger, m *metrics.Metrics, runs RunStore) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	workers := cfg.Search.Workers
	if workers < 1 {
		workers = 1
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		engine:  logging.NewZapLogger(logger.WithFields(nil)),
		metrics: m,
		runs:    runs,
		states:  make(map[string]*RunState),
		slots:   make(chan struct{}, workers),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Get("/runs", s.handleListRuns)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// searchSettings is the JSON form of tsp.SearchConfig.
type searchSettings struct {
	Iterations int    `json:"iterations"`
	Policy     string `json:"policy"`
	Steepest   bool   `json:"steepest"`
	SampleSize int    `json:"sample_size"`
	Seed       int64  `json:"seed"`
}

// searchOverrides are the optional per-request search parameters.
type searchOverrides struct {
	Iterations *int    `json:"iterations" validate:"omitempty,min=1"`
	Policy     *string `json:"policy"`
	Steepest   *bool   `json:"steepest"`
	SampleSize *int    `json:"sample_size" validate:"omitempty,min=1"`
	Seed       *int64  `json:"seed"`
}

type solveRequest struct {
	Names     []string         `json:"names" validate:"omitempty,dive,required"`
	Distances [][]float64      `json:"distances" validate:"required,min=1"`
	Algorithm string           `json:"algorithm"`
	Search    *searchOverrides `json:"search"`
}

type idRequest struct {
	RunID string `json:"run_id" validate:"required"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", apierrors.ErrBadRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", apierrors.ErrBadRequest, err)
	}
	return nil
}

func (s *Server) settings(o *searchOverrides) searchSettings {
	st := searchSettings{
		Iterations: s.cfg.Search.Iterations,
		Policy:     s.cfg.Search.Policy,
		Steepest:   s.cfg.Search.Steepest,
		SampleSize: s.cfg.Search.SampleSize,
		Seed:       s.cfg.Search.Seed,
	}
	if o == nil {
		return st
	}
	if o.Iterations != nil {
		st.Iterations = *o.Iterations
	}
	if o.Policy != nil {
		st.Policy = *o.Policy
	}
	if o.Steepest != nil {
		st.Steepest = *o.Steepest
	}
	if o.SampleSize != nil {
		st.SampleSize = *o.SampleSize
	}
	if o.Seed != nil {
		st.Seed = *o.Seed
	}
	return st
}

// startSolve checks an already validated request against the instance
// and launches its job.
func (s *Server) startSolve(req solveRequest) (map[string]interface{}, error) {
	algorithm := tsp.AlgorithmHillClimbing
	if req.Algorithm != "" {
		var err error
		if algorithm, err = tsp.ParseAlgorithm(req.Algorithm); err != nil {
			return nil, err
		}
	}

	d, err := tsp.NewDistances(req.Distances)
	if err != nil {
		return nil, err
	}
	if s.cfg.Search.StrictMatrix {
		if err := d.CheckMetric(); err != nil {
			return nil, err
		}
	}
	if req.Names != nil && len(req.Names) != d.N() {
		return nil, fmt.Errorf("%w: %d names for %d cities", apierrors.ErrBadRequest, len(req.Names), d.N())
	}
	if algorithm == tsp.AlgorithmBruteforce && s.cfg.Search.MaxExactCities > 0 && d.N() > s.cfg.Search.MaxExactCities {
		return nil, fmt.Errorf("%w: %d cities, limit %d", tsp.ErrTooManyCities, d.N(), s.cfg.Search.MaxExactCities)
	}

	st := s.settings(req.Search)
	if _, err := tsp.ParsePolicy(st.Policy); err != nil {
		return nil, err
	}

	id := "run_" + strconv.FormatInt(time.Now().UnixNano(), 36) + "_" + strconv.FormatUint(s.seq.Add(1), 10)
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &RunState{
		ID:          id,
		Status:      StatusPending,
		Algorithm:   algorithm,
		Search:      st,
		Names:       req.Names,
		Distances:   d,
		StartTime:   now,
		CancelFunc:  cancel,
		LastUpdated: now,
	}

	s.runsMu.Lock()
	s.states[id] = state
	s.runsMu.Unlock()

	s.metrics.Started(algorithm)
	s.wg.Add(1)
	go s.runSolve(ctx, state)

	s.logger.Info("Run submitted", map[string]interface{}{
		"run_id":    id,
		"algorithm": string(algorithm),
		"cities":    d.N(),
	})

	return map[string]interface{}{
		"run_id": id,
		"status": StatusPending,
	}, nil
}

// runSolve executes a job once a worker slot is free.
func (s *Server) runSolve(ctx context.Context, state *RunState) {
	defer s.wg.Done()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.finish(state, nil, ctx.Err())
		return
	}

	s.runsMu.Lock()
	if state.Status == StatusPending {
		state.Status = StatusRunning
		state.LastUpdated = time.Now()
	}
	s.runsMu.Unlock()

	policy, _ := tsp.ParsePolicy(state.Search.Policy)
	result, err := tsp.Solve(ctx, state.Distances, tsp.Options{
		Algorithm: state.Algorithm,
		Search: tsp.SearchConfig{
			Iterations: state.Search.Iterations,
			Policy:     policy,
			Steepest:   state.Search.Steepest,
			SampleSize: state.Search.SampleSize,
			Seed:       state.Search.Seed,
		},
		MaxExactCities: s.cfg.Search.MaxExactCities,
		Logger:         s.engine.With(zap.String("run_id", state.ID)),
	})
	s.finish(state, result, err)
}

// finish records the outcome of a job, updates metrics and persists it.
func (s *Server) finish(state *RunState, result *tsp.Result, err error) {
	s.runsMu.Lock()
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	switch {
	case err == nil:
		state.Status = StatusCompleted
		state.Result = result
	case state.Status == StatusCancelled || ctxErr(err):
		state.Status = StatusCancelled
		state.Err = err.Error()
	default:
		state.Status = StatusFailed
		state.Err = err.Error()
	}
	record := toStoreRun(state)
	s.runsMu.Unlock()

	if err == nil {
		s.metrics.Completed(result)
	} else {
		s.metrics.Finished(state.Algorithm, record.Status)
		if record.Status == StatusFailed {
			s.logger.Error("Run failed", map[string]interface{}{"run_id": state.ID, "error": err.Error()})
		}
	}

	if s.runs != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.runs.Save(saveCtx, record); err != nil {
			s.logger.Warn("Failed to persist run", map[string]interface{}{"run_id": state.ID, "error": err.Error()})
		}
	}
}

func ctxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func toStoreRun(state *RunState) *store.Run {
	conf, _ := json.Marshal(state.Search)
	r := &store.Run{
		ID:        state.ID,
		Algorithm: string(state.Algorithm),
		Status:    state.Status,
		Error:     state.Err,
		Cities:    state.Distances.N(),
		Names:     state.Names,
		Config:    conf,
		StartedAt: state.StartTime,
	}
	if state.EndTime != nil {
		r.FinishedAt = *state.EndTime
	}
	if res := state.Result; res != nil {
		r.Tour = res.Tour
		r.Fitness = res.Fitness
		r.InitialFitness = res.InitialFitness
		r.Iterations = res.Iterations
		r.Accepted = res.Accepted
	}
	return r
}

// runStatus reports a job, falling back to the run store for jobs that
// are no longer held in memory.
func (s *Server) runStatus(ctx context.Context, id string) (map[string]interface{}, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: run_id is required", apierrors.ErrBadRequest)
	}

	s.runsMu.RLock()
	state, exists := s.states[id]
	if exists {
		defer s.runsMu.RUnlock()
		return describe(state), nil
	}
	s.runsMu.RUnlock()

	if s.runs == nil {
		return nil, fmt.Errorf("%w: run %s", apierrors.ErrNotFound, id)
	}
	r, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"run_id": r.ID, "status": r.Status, "stored": r}, nil
}

// describe must be called with runsMu held.
func describe(state *RunState) map[string]interface{} {
	response := map[string]interface{}{
		"run_id":      state.ID,
		"status":      state.Status,
		"algorithm":   string(state.Algorithm),
		"search":      state.Search,
		"cities":      state.Distances.N(),
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if res := state.Result; res != nil {
		response["result"] = map[string]interface{}{
			"route":       report.Build(res.Tour, state.Names, state.Distances),
			"initial":     report.Build(res.Initial, state.Names, state.Distances),
			"fitness":     res.Fitness,
			"iterations":  res.Iterations,
			"accepted":    res.Accepted,
			"history":     res.History,
			"duration_ms": float64(res.Duration.Microseconds()) / 1000.0,
		}
	}
	return response
}

// cancelRun cancels a pending or running job.
func (s *Server) cancelRun(id string) error {
	if id == "" {
		return fmt.Errorf("%w: run_id is required", apierrors.ErrBadRequest)
	}

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, exists := s.states[id]
	if !exists {
		return fmt.Errorf("%w: run %s", apierrors.ErrNotFound, id)
	}

	switch state.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return fmt.Errorf("%w: cannot cancel run with status %s", apierrors.ErrConflict, state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}
	state.Status = StatusCancelled
	state.LastUpdated = time.Now()

	s.logger.Info("Run cancelled", map[string]interface{}{"run_id": id})
	return nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", request.ID)
		return
	}

	var (
		result interface{}
		err    error
	)
	switch request.Method {
	case "tour.solve":
		var req solveRequest
		if err = decodeParam(request.Params, &req); err == nil {
			result, err = s.startSolve(req)
		}
	case "tour.status":
		var req idRequest
		if err = decodeParam(request.Params, &req); err == nil {
			result, err = s.runStatus(r.Context(), req.RunID)
		}
	case "tour.cancel":
		var req idRequest
		if err = decodeParam(request.Params, &req); err == nil {
			if err = s.cancelRun(req.RunID); err == nil {
				result = map[string]string{"status": "cancellation requested"}
			}
		}
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, apierrors.FromError(err).Message, request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func decodeParam(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing required parameters", apierrors.ErrBadRequest)
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return fmt.Errorf("%w: invalid parameter format: %v", apierrors.ErrBadRequest, err)
	}
	return validateRequest(v)
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

// handleSolve handles POST /api/v1/solve
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.Write(w, fmt.Errorf("%w: invalid request body: %v", apierrors.ErrBadRequest, err))
		return
	}
	if err := validateRequest(&req); err != nil {
		apierrors.Write(w, err)
		return
	}

	result, err := s.startSolve(req)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.runStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancel handles DELETE /api/v1/solve/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.cancelRun(chi.URLParam(r, "id")); err != nil {
		apierrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// handleListRuns handles GET /api/v1/runs?limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		apierrors.Write(w, fmt.Errorf("%w: run history is disabled", apierrors.ErrNotFound))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			apierrors.Write(w, fmt.Errorf("%w: invalid limit %q", apierrors.ErrBadRequest, v))
			return
		}
		limit = n
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		apierrors.Write(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Close cancels every job and waits for them to finish.
func (s *Server) Close() error {
	s.runsMu.Lock()
	for _, state := range s.states {
		if state.CancelFunc != nil {
			state.CancelFunc()
		}
	}
	s.runsMu.Unlock()

	s.wg.Wait()
	return nil
}
