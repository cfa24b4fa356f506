// Package server serves generated world fields over HTTP, generating worlds on
// demand.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Coelancanth/Darklands-sub002/internal/grid"
	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/Coelancanth/Darklands-sub002/internal/preview"
	"github.com/Coelancanth/Darklands-sub002/internal/thresholds"
	"github.com/Coelancanth/Darklands-sub002/internal/wind"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/Coelancanth/Darklands-sub002/internal/worldstore"
	"github.com/gorilla/mux"
)

// Generator produces a world for a request.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request, debug *pipeline.DebugContext) (*world.World, error)
}

// Store looks up previously saved worlds.
type Store interface {
	Find(ctx context.Context, seed int64, width, height int) (int64, error)
	Load(ctx context.Context, id int64) (*world.World, error)
}

// Config configures the world server.
type Config struct {
	CacheControl             string
	DefaultWidth             int
	DefaultHeight            int
	MaxDimension             int
	PreviewSize              int
	CacheSize                int
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
}

// WorldServer serves world summaries and field previews.
type WorldServer struct {
	gen    Generator
	store  Store
	cfg    Config
	cache  *worldCache
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map

	activeGenerations atomic.Int32
	queuedGenerations atomic.Int32
	totalGenerated    atomic.Int64
	totalFailed       atomic.Int64
	storeHits         atomic.Int64
}

// Status is the JSON body of the status endpoint.
type Status struct {
	ActiveGenerations int   `json:"active_generations"`
	QueuedGenerations int   `json:"queued_generations"`
	MaxConcurrent     int   `json:"max_concurrent"`
	TotalGenerated    int64 `json:"total_generated"`
	TotalFailed       int64 `json:"total_failed"`
	StoreHits         int64 `json:"store_hits"`
	CachedWorlds      int   `json:"cached_worlds"`
}

// Summary is the JSON body of the world summary endpoint.
type Summary struct {
	Seed              int64             `json:"seed"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	Thresholds        *Levels           `json:"thresholds,omitempty"`
	AxialTilt         *float64          `json:"axial_tilt,omitempty"`
	DistanceToSunSq   *float64          `json:"distance_to_sun_sq,omitempty"`
	OceanFraction     *float64          `json:"ocean_fraction,omitempty"`
	MeanTemperature   *float64          `json:"mean_temperature,omitempty"`
	MeanPrecipitation *float64          `json:"mean_precipitation,omitempty"`
	Fields            []world.FieldName `json:"fields"`
}

// Levels are the elevation thresholds of a world in raw units.
type Levels struct {
	Sea      float64 `json:"sea"`
	Hill     float64 `json:"hill"`
	Mountain float64 `json:"mountain"`
	Peak     float64 `json:"peak"`
}

func levelsOf(t *thresholds.Thresholds) *Levels {
	if t == nil {
		return nil
	}
	return &Levels{Sea: t.SeaLevel, Hill: t.HillLevel, Mountain: t.MountainLevel, Peak: t.PeakLevel}
}

// New creates a world server. store may be nil.
func New(gen Generator, store Store, cfg Config, logger *slog.Logger) *WorldServer {
	if cfg.DefaultWidth <= 0 {
		cfg.DefaultWidth = 256
	}
	if cfg.DefaultHeight <= 0 {
		cfg.DefaultHeight = 256
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 1024
	}
	if cfg.PreviewSize < 0 {
		cfg.PreviewSize = 0
	}
	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &WorldServer{
		gen:    gen,
		store:  store,
		cfg:    cfg,
		cache:  newWorldCache(cfg.CacheSize),
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}
}

// Router returns the HTTP routes of the server.
func (s *WorldServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	router.HandleFunc("/status", s.serveStatus).Methods(http.MethodGet)
	router.HandleFunc("/fields", s.serveFieldList).Methods(http.MethodGet)
	router.HandleFunc("/worlds/{seed}/summary", s.serveSummary).Methods(http.MethodGet)
	router.HandleFunc("/worlds/{seed}/fields/{field}.png", s.serveField).Methods(http.MethodGet)
	return router
}

// Status returns the current generation counters.
func (s *WorldServer) Status() Status {
	return Status{
		ActiveGenerations: int(s.activeGenerations.Load()),
		QueuedGenerations: int(s.queuedGenerations.Load()),
		MaxConcurrent:     s.cfg.MaxConcurrentGenerations,
		TotalGenerated:    s.totalGenerated.Load(),
		TotalFailed:       s.totalFailed.Load(),
		StoreHits:         s.storeHits.Load(),
		CachedWorlds:      s.cache.Len(),
	}
}

func (s *WorldServer) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

func (s *WorldServer) serveStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, s.Status())
}

func (s *WorldServer) serveFieldList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, world.Fields())
}

func (s *WorldServer) serveSummary(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseWorldRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wd, err := s.world(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, req, err)
		return
	}

	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	s.writeJSON(w, summarize(wd))
}

func (s *WorldServer) serveField(w http.ResponseWriter, r *http.Request) {
	name, err := world.LookupField(mux.Vars(r)["field"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	req, err := s.parseWorldRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	size := s.cfg.PreviewSize
	if v := r.URL.Query().Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size < 0 || size > preview.MaxSize {
			http.Error(w, fmt.Sprintf("invalid size %q", v), http.StatusBadRequest)
			return
		}
	}

	wd, err := s.world(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, req, err)
		return
	}

	field, err := wd.Field(name)
	if err != nil || field.Empty() {
		http.Error(w, fmt.Sprintf("field %s not available for seed %d", name, req.Seed), http.StatusNotFound)
		return
	}

	var overlay wind.Model
	if r.URL.Query().Get("wind") == "1" {
		overlay = wind.Latitude{}
	}
	img, err := preview.Render(field, size, overlay)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := png.Encode(w, img); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}

// world returns the requested world from the cache, the store, or a fresh
// generation, in that order.
func (s *WorldServer) world(ctx context.Context, req pipeline.Request) (*world.World, error) {
	key := cacheKey(req)
	if wd, ok := s.cache.Get(key); ok {
		return wd, nil
	}

	mu := s.getLock(key)
	mu.Lock()
	defer s.releaseLock(key, mu)

	if wd, ok := s.cache.Get(key); ok {
		return wd, nil
	}

	if s.store != nil && req.SeaLevel == nil {
		if wd, err := s.loadStored(ctx, req); err == nil {
			s.storeHits.Add(1)
			s.cache.Put(key, wd)
			return wd, nil
		} else if !errors.Is(err, worldstore.ErrNotFound) {
			s.log().Warn("Failed to load stored world", "seed", req.Seed, "error", err)
		}
	}

	s.queuedGenerations.Add(1)
	select {
	case s.sem <- struct{}{}:
		s.queuedGenerations.Add(-1)
	case <-ctx.Done():
		s.queuedGenerations.Add(-1)
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	type outcome struct {
		world *world.World
		err   error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	s.activeGenerations.Add(1)
	go func() {
		wd, err := s.gen.Generate(ctx, req, nil)
		s.activeGenerations.Add(-1)
		<-s.sem
		if err == nil {
			s.cache.Put(key, wd)
		}
		done <- outcome{wd, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			s.totalFailed.Add(1)
			s.log().Error("Failed to generate world", "seed", req.Seed, "error", out.err)
			return nil, out.err
		}
		s.totalGenerated.Add(1)
		s.log().Info("World generated on-demand", "seed", req.Seed, "width", req.Width, "height", req.Height, "ms", time.Since(start).Milliseconds())
		return out.world, nil
	case <-ctx.Done():
		s.totalFailed.Add(1)
		return nil, ctx.Err()
	}
}

func (s *WorldServer) loadStored(ctx context.Context, req pipeline.Request) (*world.World, error) {
	id, err := s.store.Find(ctx, req.Seed, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	return s.store.Load(ctx, id)
}

func (s *WorldServer) writeGenerationError(w http.ResponseWriter, req pipeline.Request, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, fmt.Sprintf("generation of seed %d timed out", req.Seed), http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
	default:
		http.Error(w, fmt.Sprintf("failed to generate seed %d: %v", req.Seed, err), http.StatusInternalServerError)
	}
}

// parseWorldRequest reads the seed path variable and the optional width,
// height and sea_level query parameters.
func (s *WorldServer) parseWorldRequest(r *http.Request) (pipeline.Request, error) {
	seed, err := strconv.ParseInt(mux.Vars(r)["seed"], 10, 64)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("invalid seed %q", mux.Vars(r)["seed"])
	}
	req := pipeline.Request{Seed: seed, Width: s.cfg.DefaultWidth, Height: s.cfg.DefaultHeight}

	q := r.URL.Query()
	for _, dim := range []struct {
		key string
		dst *int
	}{{"width", &req.Width}, {"height", &req.Height}} {
		v := q.Get(dim.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > s.cfg.MaxDimension {
			return pipeline.Request{}, fmt.Errorf("invalid %s %q (1..%d)", dim.key, v, s.cfg.MaxDimension)
		}
		*dim.dst = n
	}

	if v := q.Get("sea_level"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return pipeline.Request{}, fmt.Errorf("invalid sea_level %q", v)
		}
		req.SeaLevel = &f
	}
	return req, nil
}

func cacheKey(req pipeline.Request) string {
	key := fmt.Sprintf("%d_%dx%d", req.Seed, req.Width, req.Height)
	if req.SeaLevel != nil {
		key += "_sea" + strconv.FormatFloat(*req.SeaLevel, 'g', -1, 64)
	}
	return key
}

func summarize(wd *world.World) Summary {
	sum := Summary{
		Seed:       wd.Seed,
		Width:      wd.Width,
		Height:     wd.Height,
		Thresholds: levelsOf(wd.Thresholds),
		Fields:     wd.Present(),
	}
	if c := wd.Climate; c != nil {
		sum.AxialTilt = &c.AxialTilt
		sum.DistanceToSunSq = &c.DistanceToSunSq
	}
	if wd.Ocean != nil {
		f := float64(wd.Ocean.Count()) / float64(len(wd.Ocean.Cells()))
		sum.OceanFraction = &f
	}
	sum.MeanTemperature = mean(wd.Temperature)
	sum.MeanPrecipitation = mean(wd.FinalPrecipitation)
	return sum
}

func mean(g *grid.Float) *float64 {
	if g == nil || len(g.Cells()) == 0 {
		return nil
	}
	var total float64
	for _, v := range g.Cells() {
		total += v
	}
	m := total / float64(len(g.Cells()))
	return &m
}

func (s *WorldServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("failed to encode response", "error", err)
	}
}

func (s *WorldServer) getLock(key string) *sync.Mutex {
	if v, ok := s.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := s.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

// releaseLock drops the per-key lock from the map before unlocking it. A
// waiter still holding mu re-checks the cache once it acquires it.
func (s *WorldServer) releaseLock(key string, mu *sync.Mutex) {
	s.locks.CompareAndDelete(key, mu)
	mu.Unlock()
}

func (s *WorldServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
