package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Coelancanth/Darklands-sub002/internal/world"
)

// StageCapture is one intermediate grid recorded during a run.
type StageCapture struct {
	Order int
	// Name is "<order>_<field>", e.g. "03_temperature-latitude".
	Name  string
	Field world.Field
}

// DebugContext collects every intermediate grid of a run when passed to
// Generate or Run. A nil *DebugContext records nothing.
type DebugContext struct {
	mu     sync.Mutex
	stages []StageCapture
}

func (d *DebugContext) capture(f world.Field) {
	if d == nil || f.Empty() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	order := len(d.stages)
	d.stages = append(d.stages, StageCapture{
		Order: order,
		Name:  fmt.Sprintf("%02d_%s", order, f.Name),
		Field: f,
	})
}

// SortedStages returns the captured grids in the order they were produced.
func (d *DebugContext) SortedStages() []StageCapture {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]StageCapture, len(d.stages))
	copy(out, d.stages)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
