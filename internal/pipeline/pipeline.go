package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	"github.com/couchcryptid/footprint-extrusion/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TileFetcher downloads the raw feature collection for one bounding box.
// An error means the tile produced no data; the run continues without it.
type TileFetcher interface {
	Fetch(ctx context.Context, bbox domain.BBox, logger *slog.Logger) ([]byte, error)
}

// SolidLoader publishes the solids of a finished run.
type SolidLoader interface {
	LoadSolids(ctx context.Context, runID string, solids []domain.Solid) error
}

// Stage is the last state a run reached.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageValidatingInputs Stage = "validating_inputs"
	StageComputingBBox    Stage = "computing_bbox"
	StagePlanningTiles    Stage = "planning_tiles"
	StageFetchingTiles    Stage = "fetching_tiles"
	StageAggregating      Stage = "aggregating"
	StageDeduplicating    Stage = "deduplicating"
	StageReconstructing   Stage = "reconstructing_geometry"
	StageDone             Stage = "done"
)

// Request is one invocation. Latitude and Longitude are required; a nil or
// non-positive Radius falls back to the configured default. Nothing happens
// unless Run is set.
type Request struct {
	Latitude  *float64
	Longitude *float64
	Radius    *float64
	Run       bool
}

// Result is the outcome of a run. Solids is empty unless Stage is StageDone.
type Result struct {
	RunID  string         `json:"run_id"`
	Stage  Stage          `json:"stage"`
	Solids []domain.Solid `json:"solids"`
	Log    string         `json:"log"`
}

// Options tune a Pipeline. Zero values fall back to defaults.
type Options struct {
	DefaultRadius  float64
	MaxAbsLatitude float64
	Clock          clockwork.Clock
}

// DefaultRadius is used when a request carries no usable radius.
const DefaultRadius = 500.0

// unhealthyAfter is the number of consecutive runs with every tile failing
// after which the pipeline reports itself not ready.
const unhealthyAfter = 3

// progressEvery is how often, in features, reconstruction reports throughput.
const progressEvery = 100

// Pipeline turns a centre point and radius into extruded building solids.
type Pipeline struct {
	fetcher       TileFetcher
	kernel        domain.GeometryKernel
	loader        SolidLoader
	logger        *slog.Logger
	metrics       *observability.Metrics
	clock         clockwork.Clock
	bbox          domain.BBoxCalculator
	defaultRadius float64
	failedRuns    atomic.Int32
}

// New creates a Pipeline. loader may be nil.
func New(f TileFetcher, k domain.GeometryKernel, l SolidLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = DefaultRadius
	}
	return &Pipeline{
		fetcher:       f,
		kernel:        k,
		loader:        l,
		logger:        logger,
		metrics:       metrics,
		clock:         opts.Clock,
		bbox:          domain.BBoxCalculator{MaxAbsLatitude: opts.MaxAbsLatitude},
		defaultRadius: opts.DefaultRadius,
	}
}

// CheckReadiness returns an error once several runs in a row could not get
// a single tile from the feature service.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if n := p.failedRuns.Load(); n >= unhealthyAfter {
		return fmt.Errorf("feature service unavailable for %d consecutive runs", n)
	}
	return nil
}

// Run executes one request to completion. Input problems end the run early
// with an empty result; download, parse and geometry problems only drop the
// affected tile, feature or polygon. The returned Log holds every progress
// line of the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (res Result) {
	res.RunID = uuid.NewString()
	res.Stage = StageIdle

	runLog := NewRunLog(p.logger.With("run_id", res.RunID).Handler(), p.clock)
	logger := slog.New(runLog)

	start := p.clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.metrics.PipelineRunning.Set(0)
		p.metrics.RunsTotal.WithLabelValues(string(res.Stage)).Inc()
		res.Log = runLog.String()
	}()

	if !req.Run {
		logger.Info("run is disabled, waiting")
		return res
	}

	res.Stage = StageValidatingInputs
	if req.Latitude == nil || req.Longitude == nil {
		logger.Warn("latitude and longitude are required")
		return res
	}
	center := domain.GeoPoint{Lon: *req.Longitude, Lat: *req.Latitude}
	radius := p.radius(req.Radius, logger)
	logger.Info("processing request", "lat", center.Lat, "lon", center.Lon, "radius_m", radius)

	res.Stage = StageComputingBBox
	box, err := p.bbox.Calculate(center, radius)
	if err != nil {
		logger.Error("cannot compute bounding box", "error", err)
		return res
	}
	logger.Info("calculated full bbox", "bbox", box.String())

	res.Stage = StagePlanningTiles
	steps := domain.GridSteps(radius)
	tiles := domain.PlanTiles(box, steps)
	logger.Info("using tile grid",
		"grid", fmt.Sprintf("%dx%d", steps, steps),
		"tiles", len(tiles),
		"radius_m", radius,
	)

	res.Stage = StageFetchingTiles
	responses, failed := p.fetchTiles(ctx, tiles, logger)
	p.recordTileHealth(failed, len(tiles))

	res.Stage = StageAggregating
	features, stats := domain.Aggregate(responses, logger)
	p.metrics.Tiles.WithLabelValues("unparsable").Add(float64(stats.Unparsable))
	p.metrics.FeaturesSkipped.Add(float64(stats.Skipped))
	p.metrics.FeaturesFetched.Add(float64(len(features)))
	if len(features) == 0 {
		logger.Warn("no data received from any tile")
		return res
	}
	logger.Info("total features found", "features", len(features))

	res.Stage = StageDeduplicating
	unique := domain.Deduplicate(features)
	p.metrics.DuplicatesDropped.Add(float64(len(features) - len(unique)))
	logger.Info("unique features after deduplication", "features", len(unique))

	res.Stage = StageReconstructing
	solids := p.reconstruct(center, unique, logger)

	logger.Info("total execution time", "duration", seconds(p.clock.Since(start)))
	logger.Info("successfully created solids", "solids", len(solids))
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())

	res.Stage = StageDone
	res.Solids = solids

	if p.loader != nil && len(solids) > 0 {
		if err := p.loader.LoadSolids(ctx, res.RunID, solids); err != nil {
			logger.Error("publish solids failed", "error", err, "solids", len(solids))
		}
	}
	return res
}

// fetchTiles downloads every tile in order, one request at a time. Tiles
// that fail contribute a response with no body.
func (p *Pipeline) fetchTiles(ctx context.Context, tiles []domain.Tile, logger *slog.Logger) ([]domain.TileResponse, int) {
	responses := make([]domain.TileResponse, 0, len(tiles))
	failed := 0
	for _, t := range tiles {
		label := fmt.Sprintf("%d/%d", t.Index+1, len(tiles))
		logger.Info("downloading tile", "tile", label, "bbox", t.BBox.String())

		tileStart := p.clock.Now()
		body, err := p.fetcher.Fetch(ctx, t.BBox, logger)
		logger.Info("tile download took", "tile", label, "duration", seconds(p.clock.Since(tileStart)))

		if err != nil {
			failed++
			p.metrics.Tiles.WithLabelValues("failed").Inc()
			logger.Warn("tile failed to download", "tile", label, "error", err)
			responses = append(responses, domain.TileResponse{Tile: t})
			continue
		}
		p.metrics.Tiles.WithLabelValues("ok").Inc()
		responses = append(responses, domain.TileResponse{Tile: t, Body: body})
	}
	return responses, failed
}

func (p *Pipeline) recordTileHealth(failed, total int) {
	if total > 0 && failed == total {
		p.failedRuns.Add(1)
		return
	}
	p.failedRuns.Store(0)
}

func (p *Pipeline) radius(r *float64, logger *slog.Logger) float64 {
	if r == nil {
		return p.defaultRadius
	}
	if *r <= 0 || math.IsNaN(*r) || math.IsInf(*r, 0) {
		logger.Warn("radius must be positive, using default", "radius_m", *r, "default_m", p.defaultRadius)
		return p.defaultRadius
	}
	return *r
}

// seconds renders a duration as seconds with two decimals.
func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
