package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/Coelancanth/Darklands-sub002/internal/preview"
	"github.com/Coelancanth/Darklands-sub002/internal/terrain"
	"github.com/Coelancanth/Darklands-sub002/internal/worker"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/Coelancanth/Darklands-sub002/internal/worldstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// maxSeeds bounds how many worlds one generate invocation may request.
const maxSeeds = 10000

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate worlds",
	Long:  `Generate the climate of one or more worlds from the synthetic terrain source.`,
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Int64("seed", 1337, "World seed (first seed when --count > 1)")
	generateCmd.Flags().Int("count", 1, "Number of consecutive seeds to generate")
	generateCmd.Flags().String("seeds", "", "Explicit seed list, e.g. \"1,7,10..12\" (overrides --seed/--count)")
	generateCmd.Flags().Int("width", 256, "World width in cells")
	generateCmd.Flags().Int("height", 256, "World height in cells")
	generateCmd.Flags().String("sea-level", "", "Raw sea level for ocean detection (default: heightmap median)")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	generateCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some worlds fail")
	generateCmd.Flags().String("stages-dir", "", "Write a grayscale PNG of every intermediate grid to this directory")
	generateCmd.Flags().Int("preview-size", 0, "Longest edge of stage PNGs in pixels (0 = one pixel per cell)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.seed", "seed"},
		{"generate.count", "count"},
		{"generate.seeds", "seeds"},
		{"generate.width", "width"},
		{"generate.height", "height"},
		{"generate.sea_level", "sea-level"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
		{"generate.stages_dir", "stages-dir"},
		{"generate.preview_size", "preview-size"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	seed := viper.GetInt64("generate.seed")
	count := viper.GetInt("generate.count")
	seedList := viper.GetString("generate.seeds")
	width := viper.GetInt("generate.width")
	height := viper.GetInt("generate.height")
	seaLevelStr := viper.GetString("generate.sea_level")
	workers := viper.GetInt("generate.workers")
	showProgress := viper.GetBool("generate.progress")
	allowFailures := viper.GetBool("generate.allow_failures")
	stagesDir := viper.GetString("generate.stages_dir")
	previewSize := viper.GetInt("generate.preview_size")
	dbPath := viper.GetString("db")

	if logger == nil {
		initLogging()
	}

	seeds, err := resolveSeeds(seedList, seed, count)
	if err != nil {
		return fmt.Errorf("invalid seeds: %w", err)
	}
	seaLevel, err := parseSeaLevel(seaLevelStr)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d: width and height must be positive", width, height)
	}
	if previewSize < 0 || previewSize > preview.MaxSize {
		return fmt.Errorf("--preview-size must be within [0,%d]", preview.MaxSize)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(seeds))

	params, err := loadParams(viper.GetViper())
	if err != nil {
		return err
	}
	gen, err := pipeline.NewGenerator(terrain.NewSynthetic(), params, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	var store *worldstore.Store
	if dbPath != "" {
		store, err = worldstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	logger.Info("Starting world generation",
		"worlds", len(seeds),
		"size", fmt.Sprintf("%dx%d", width, height),
		"workers", workers,
		"noise", params.NoiseBackend,
		"db", dbPath,
		"stages_dir", stagesDir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := make([]worker.Task, 0, len(seeds))
	for _, s := range seeds {
		tasks = append(tasks, worker.Task{
			Request: pipeline.Request{Seed: s, Width: width, Height: height, SeaLevel: seaLevel},
			Debug:   stagesDir != "",
		})
	}

	progress := worker.NewProgress(len(tasks), showProgress && len(tasks) > 1, logger)

	var saver worldSaver
	if store != nil {
		saver = store
	}
	handle := resultHandler(ctx, saver, stagesDir, previewSize, len(tasks) == 1)

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
		OnResult: func(r *worker.Result) error {
			progress.Observe(*r)
			return handle(r)
		},
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("World generation failed", "seed", r.Task.Request.Seed, "error", r.Err)
			continue
		}
		if len(results) == 1 && r.World != nil && r.World.Thresholds != nil {
			t := r.World.Thresholds
			logger.Info("World generated",
				"seed", r.Task.Request.Seed,
				"sea_level", t.SeaLevel,
				"mountain_level", t.MountainLevel,
				"ms", r.Elapsed.Milliseconds(),
			)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some worlds failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
		} else {
			return fmt.Errorf("%d worlds failed to generate", failedCount)
		}
	}
	return nil
}

// worldSaver persists generated worlds.
type worldSaver interface {
	Save(ctx context.Context, w *world.World) (int64, error)
}

// resultHandler writes stage previews and stores each finished world. The
// world is released afterwards unless keepWorld is set, so a batch run does
// not hold every generated world until the pool returns.
func resultHandler(ctx context.Context, store worldSaver, stagesDir string, previewSize int, keepWorld bool) worker.ResultFunc {
	return func(r *worker.Result) error {
		if stagesDir != "" {
			dir, err := writeStages(stagesDir, r.Task.Request.Seed, r.Stages, previewSize)
			if err != nil {
				return err
			}
			logger.Debug("Stage previews written", "seed", r.Task.Request.Seed, "dir", dir)
			r.Stages = nil
		}
		if store != nil {
			id, err := store.Save(ctx, r.World)
			if err != nil {
				return err
			}
			logger.Debug("World stored", "seed", r.Task.Request.Seed, "id", id)
		}
		if !keepWorld {
			r.World = nil
		}
		return nil
	}
}

// writeStages writes every captured grid as <dir>/seed_<seed>/<name>.png and
// returns the seed directory.
func writeStages(dir string, seed int64, stages []pipeline.StageCapture, size int) (string, error) {
	seedDir := filepath.Join(dir, fmt.Sprintf("seed_%d", seed))
	if err := os.MkdirAll(seedDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create stages dir: %w", err)
	}
	for _, st := range stages {
		if err := writePreview(filepath.Join(seedDir, st.Name+".png"), st, size); err != nil {
			return "", err
		}
	}
	return seedDir, nil
}

func writePreview(path string, st pipeline.StageCapture, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := preview.Encode(f, st.Field, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolveSeeds returns the explicit seed list when given, otherwise count
// consecutive seeds starting at first.
func resolveSeeds(list string, first int64, count int) ([]int64, error) {
	if strings.TrimSpace(list) != "" {
		return parseSeeds(list)
	}
	if count <= 0 || count > maxSeeds {
		return nil, fmt.Errorf("count must be within [1,%d], got %d", maxSeeds, count)
	}
	if first > math.MaxInt64-int64(count-1) {
		return nil, fmt.Errorf("seed range starting at %d overflows", first)
	}
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = first + int64(i)
	}
	return seeds, nil
}

// parseSeeds parses a comma-separated list of seeds and inclusive "a..b"
// ranges.
func parseSeeds(s string) ([]int64, error) {
	var seeds []int64
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty seed at position %d", i)
		}

		lo, hi, isRange := strings.Cut(part, "..")
		from, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed at position %d: %w", i, err)
		}
		to := from
		if isRange {
			to, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid seed at position %d: %w", i, err)
			}
			if to < from {
				return nil, fmt.Errorf("range %q must be ascending", part)
			}
		}
		if to-from >= maxSeeds-int64(len(seeds)) || to-from < 0 {
			return nil, fmt.Errorf("too many seeds (max %d)", maxSeeds)
		}
		for v := from; ; v++ {
			seeds = append(seeds, v)
			if v == to {
				break
			}
		}
	}
	return seeds, nil
}

// parseSeaLevel returns nil for an empty string.
func parseSeaLevel(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("invalid sea level %q", s)
	}
	return &v, nil
}
