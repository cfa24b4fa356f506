package cmd

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/noise"
	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/Coelancanth/Darklands-sub002/internal/terrain"
	"github.com/Coelancanth/Darklands-sub002/internal/worker"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/spf13/viper"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{
			name:  "single seed",
			input: "42",
			want:  []int64{42},
		},
		{
			name:  "list with spaces",
			input: "1, 7 ,3",
			want:  []int64{1, 7, 3},
		},
		{
			name:  "range",
			input: "10..12",
			want:  []int64{10, 11, 12},
		},
		{
			name:  "negative range and seeds",
			input: "-2..0,-9",
			want:  []int64{-2, -1, 0, -9},
		},
		{
			name:  "single element range",
			input: "5..5",
			want:  []int64{5},
		},
		{
			name:  "max int64",
			input: "9223372036854775806..9223372036854775807",
			want:  []int64{math.MaxInt64 - 1, math.MaxInt64},
		},
		{
			name:    "descending range",
			input:   "12..10",
			wantErr: true,
		},
		{
			name:    "invalid number",
			input:   "abc",
			wantErr: true,
		},
		{
			name:    "empty element",
			input:   "1,,2",
			wantErr: true,
		},
		{
			name:    "too many seeds",
			input:   "0..10000",
			wantErr: true,
		},
		{
			name:    "full int64 range",
			input:   "-9223372036854775808..9223372036854775807",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSeeds(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseSeeds(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseSeeds(%q) unexpected error: %v", tt.input, err)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSeeds(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveSeeds(t *testing.T) {
	got, err := resolveSeeds("", 100, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{100, 101, 102}) {
		t.Fatalf("unexpected seeds: %v", got)
	}

	got, err = resolveSeeds("4,5", 100, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{4, 5}) {
		t.Fatalf("explicit list should win, got %v", got)
	}

	if _, err := resolveSeeds("", 1, 0); err == nil {
		t.Fatalf("expected error for zero count")
	}
	if _, err := resolveSeeds("", math.MaxInt64, 2); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestParseSeaLevel(t *testing.T) {
	v, err := parseSeaLevel("")
	if err != nil || v != nil {
		t.Fatalf("empty sea level should be nil, got %v, %v", v, err)
	}
	v, err = parseSeaLevel(" 2.5 ")
	if err != nil || v == nil || *v != 2.5 {
		t.Fatalf("expected 2.5, got %v, %v", v, err)
	}
	for _, bad := range []string{"abc", "NaN", "+Inf"} {
		if _, err := parseSeaLevel(bad); err == nil {
			t.Errorf("parseSeaLevel(%q) expected error", bad)
		}
	}
}

func TestLoadParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := loadParams(viper.New())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(p, pipeline.DefaultParams()) {
			t.Fatalf("expected defaults, got %+v", p)
		}
	})

	t.Run("climate section overrides", func(t *testing.T) {
		v := viper.New()
		v.Set("climate", map[string]any{
			"rain_shadow": map[string]any{"max_steps": 7},
			"coastal":     map[string]any{"decay_range": 12.5},
		})
		p, err := loadParams(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.RainShadow.MaxSteps != 7 || p.Coastal.DecayRange != 12.5 {
			t.Fatalf("overrides not applied: %+v", p)
		}
		if p.RainShadow.BlockPerStep != pipeline.DefaultParams().RainShadow.BlockPerStep {
			t.Fatalf("unset keys should keep their defaults, got %+v", p.RainShadow)
		}
	})

	t.Run("noise flag", func(t *testing.T) {
		v := viper.New()
		v.Set("noise", " Simplex ")
		p, err := loadParams(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.NoiseBackend != noise.BackendSimplex {
			t.Fatalf("expected simplex backend, got %q", p.NoiseBackend)
		}
	})

	t.Run("reject invalid", func(t *testing.T) {
		v := viper.New()
		v.Set("noise", "value")
		if _, err := loadParams(v); err == nil {
			t.Fatalf("expected error for unknown backend")
		}
	})
}

func TestWriteStages(t *testing.T) {
	gen, err := pipeline.NewGenerator(terrain.NewSynthetic(), pipeline.DefaultParams(), nil)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	debug := &pipeline.DebugContext{}
	if _, err := gen.Generate(t.Context(), pipeline.Request{Seed: 5, Width: 12, Height: 8}, debug); err != nil {
		t.Fatalf("failed to generate: %v", err)
	}

	dir, err := writeStages(t.TempDir(), 5, debug.SortedStages(), 24)
	if err != nil {
		t.Fatalf("writeStages failed: %v", err)
	}
	if filepath.Base(dir) != "seed_5" {
		t.Fatalf("unexpected stage dir %s", dir)
	}
	for _, st := range debug.SortedStages() {
		if _, err := os.Stat(filepath.Join(dir, st.Name+".png")); err != nil {
			t.Errorf("missing preview for %s: %v", st.Name, err)
		}
	}
}

type recordingSaver struct {
	saved []int64
}

func (s *recordingSaver) Save(_ context.Context, w *world.World) (int64, error) {
	if w == nil {
		return 0, errors.New("nil world")
	}
	s.saved = append(s.saved, w.Seed)
	return int64(len(s.saved)), nil
}

func TestResultHandlerReleasesWorlds(t *testing.T) {
	if logger == nil {
		initLogging()
	}
	tests := []struct {
		name      string
		store     bool
		keepWorld bool
		wantWorld bool
	}{
		{name: "batch without store", keepWorld: false, wantWorld: false},
		{name: "batch with store", store: true, keepWorld: false, wantWorld: false},
		{name: "single without store", keepWorld: true, wantWorld: true},
		{name: "single with store", store: true, keepWorld: true, wantWorld: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingSaver{}
			var saver worldSaver
			if tt.store {
				saver = rec
			}
			handle := resultHandler(t.Context(), saver, "", 0, tt.keepWorld)

			r := &worker.Result{
				Task:  worker.Task{Request: pipeline.Request{Seed: 9, Width: 4, Height: 4}},
				World: &world.World{Seed: 9, Width: 4, Height: 4},
			}
			if err := handle(r); err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if (r.World != nil) != tt.wantWorld {
				t.Errorf("world kept = %v, want %v", r.World != nil, tt.wantWorld)
			}
			if tt.store && !reflect.DeepEqual(rec.saved, []int64{9}) {
				t.Errorf("saved = %v, want [9]", rec.saved)
			}
		})
	}
}
