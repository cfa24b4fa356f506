package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Coelancanth/Darklands-sub002/internal/preview"
	"github.com/Coelancanth/Darklands-sub002/internal/terrain"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineStages(t *testing.T) {
	t.Run("Synthetic_64", func(t *testing.T) {
		runPipelineStagesTest(t, "synthetic_64", Request{Seed: 123, Width: 64, Height: 64})
	})

	t.Run("Synthetic_96x48", func(t *testing.T) {
		runPipelineStagesTest(t, "synthetic_96x48", Request{Seed: 7, Width: 96, Height: 48})
	})
}

// Shared test runner
func runPipelineStagesTest(t *testing.T, caseName string, req Request) {
	manifestPath := filepath.Join("..", "..", "testdata", "golden", "pipeline-stages", caseName+".sha256")
	update := os.Getenv("UPDATE_GOLDEN") == "1"

	gen, err := NewGenerator(terrain.NewSynthetic(), DefaultParams(), nil)
	require.NoError(t, err)

	debugCtx := &DebugContext{}
	_, err = gen.Generate(context.Background(), req, debugCtx)
	require.NoError(t, err)

	stages := debugCtx.SortedStages()
	require.NotEmpty(t, stages, "no stages captured")

	assertEveryFieldCaptured(t, stages)
	assertTemperatureBeforePrecipitation(t, stages)

	if os.Getenv("WORLDCLIMATE_DEBUG_STAGES") == "1" {
		debugDir := filepath.Join("..", "..", "testdata", "output", "pipeline-stages", caseName)
		for _, stage := range stages {
			writePNG(t, filepath.Join(debugDir, stage.Name+".png"), stageImage(t, stage))
		}
	}

	got := stageManifest(t, stages)

	// A second run on the same generator must produce the same bytes.
	again := &DebugContext{}
	_, err = gen.Generate(context.Background(), req, again)
	require.NoError(t, err)
	require.Equal(t, got, stageManifest(t, again.SortedStages()), "stage bytes differ between runs")

	want, err := os.ReadFile(manifestPath)
	if update || os.IsNotExist(err) {
		require.NoError(t, os.MkdirAll(filepath.Dir(manifestPath), 0o755))
		require.NoError(t, os.WriteFile(manifestPath, []byte(got), 0o644))
		t.Logf("recorded stage hashes for %s in %s", caseName, manifestPath)
		return
	}
	require.NoError(t, err)
	assertManifestEqual(t, string(want), got)
}

// stageManifest returns one "<sha256>  <stage>" line per stage, hashing the
// little-endian bytes of the field (float64 bits, one byte per bool, int64).
func stageManifest(t *testing.T, stages []StageCapture) string {
	t.Helper()
	var sb strings.Builder
	for _, stage := range stages {
		h := sha256.New()
		f := stage.Field
		var buf [8]byte
		switch f.Kind {
		case world.KindFloat:
			for _, v := range f.Float.Cells() {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				h.Write(buf[:])
			}
		case world.KindBool:
			for _, v := range f.Bool.Cells() {
				buf[0] = 0
				if v {
					buf[0] = 1
				}
				h.Write(buf[:1])
			}
		case world.KindInt:
			for _, v := range f.Int.Cells() {
				binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
				h.Write(buf[:])
			}
		default:
			t.Fatalf("stage %s has unknown kind %v", stage.Name, f.Kind)
		}
		fw, fh := f.Size()
		fmt.Fprintf(&sb, "%s  %s %dx%d\n", hex.EncodeToString(h.Sum(nil)), stage.Name, fw, fh)
	}
	return sb.String()
}

func assertManifestEqual(t *testing.T, want, got string) {
	t.Helper()
	wantLines := strings.Split(strings.TrimSpace(want), "\n")
	gotLines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, gotLines, len(wantLines), "stage count differs from pinned manifest")
	for i := range wantLines {
		assert.Equal(t, wantLines[i], gotLines[i], "stage %d differs from pinned bytes", i)
	}
}

func assertEveryFieldCaptured(t *testing.T, stages []StageCapture) {
	got := make([]world.FieldName, 0, len(stages))
	for i, stage := range stages {
		assert.Equal(t, i, stage.Order)
		got = append(got, stage.Field.Name)
	}
	assert.ElementsMatch(t, world.Fields(), got)
}

func assertTemperatureBeforePrecipitation(t *testing.T, stages []StageCapture) {
	order := map[world.FieldName]int{}
	for _, stage := range stages {
		order[stage.Field.Name] = stage.Order
	}
	assert.Less(t, order[world.FieldTemperature], order[world.FieldPrecipitationBase])
	assert.Less(t, order[world.FieldPrecipitation], order[world.FieldRainShadow])
	assert.Less(t, order[world.FieldRainShadow], order[world.FieldFinalPrecipitation])
}

func TestNilDebugContext(t *testing.T) {
	var d *DebugContext
	d.capture(world.Field{Name: world.FieldOcean})
	assert.Nil(t, d.SortedStages())
}

func stageImage(t *testing.T, stage StageCapture) *image.Gray {
	img, err := preview.Gray(stage.Field)
	require.NoError(t, err)
	return img
}

// Helper: write PNG file
func writePNG(t *testing.T, path string, img image.Image) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))
}
