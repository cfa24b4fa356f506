// Package worker generates many worlds in parallel.
package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
)

// Generator is the interface for world generation.
// This matches the signature of pipeline.Generator.Generate.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request, debug *pipeline.DebugContext) (*world.World, error)
}

// Task is a single world to generate.
type Task struct {
	Request pipeline.Request
	// Debug records the intermediate grids of the run into Result.Stages.
	Debug bool
}

// Result represents the outcome of one task.
type Result struct {
	Index   int
	Task    Task
	World   *world.World
	Err     error
	Elapsed time.Duration
	Stages  []pipeline.StageCapture
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// ResultFunc receives each result as it completes, one at a time. It may set
// r.World to nil to release the grids once they have been persisted. A
// returned error is recorded on the result.
type ResultFunc func(r *Result) error

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
	OnResult   ResultFunc
}

// Pool manages parallel world generation.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
	onResult   ResultFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
		onResult:   cfg.OnResult,
	}
}

// Run executes all tasks and returns one result per task, in task order.
// It blocks until every task has finished or been cancelled through ctx.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan int, len(tasks))
	resultCh := make(chan Result, len(tasks))
	for i := range tasks {
		taskCh <- i
	}
	close(taskCh)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, tasks, taskCh, resultCh)
		}()
	}

	// Results are collected on one goroutine so callbacks never run concurrently.
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		var completed, failed int
		for result := range resultCh {
			if p.onResult != nil && result.Err == nil {
				if err := p.onResult(&result); err != nil {
					result.Err = err
				}
			}
			results = append(results, result)

			completed++
			if result.Err != nil {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks []Task, indices <-chan int, results chan<- Result) {
	for i := range indices {
		task := tasks[i]
		select {
		case <-ctx.Done():
			results <- Result{Index: i, Task: task, Err: ctx.Err()}
			continue
		default:
		}

		var debug *pipeline.DebugContext
		if task.Debug {
			debug = &pipeline.DebugContext{}
		}

		start := time.Now()
		w, err := p.generator.Generate(ctx, task.Request, debug)
		results <- Result{
			Index:   i,
			Task:    task,
			World:   w,
			Err:     err,
			Elapsed: time.Since(start),
			Stages:  debug.SortedStages(),
		}
	}
}
