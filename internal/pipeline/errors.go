package pipeline

import "fmt"

// Stage names, in execution order.
const (
	StagePostProcessElevation = "post-process-elevation"
	StageComputeThresholds    = "compute-thresholds"
	StageComputeTemperature   = "compute-temperature"
	StageComputePrecipitation = "compute-precipitation"
	StageApplyRainShadow      = "apply-rain-shadow"
	StageApplyCoastalMoisture = "apply-coastal-moisture"
	StageAssemble             = "assemble"
)

// Stages lists every stage in the order Run executes them.
var Stages = []string{
	StagePostProcessElevation,
	StageComputeThresholds,
	StageComputeTemperature,
	StageComputePrecipitation,
	StageApplyRainShadow,
	StageApplyCoastalMoisture,
	StageAssemble,
}

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
