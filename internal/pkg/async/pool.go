// Package async provides a small fan-out/fan-in helper for running the
// independent reads of one request in parallel.
package async

import (
	"context"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries a task's outcome keyed by its name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool runs tasks across a fixed number of workers.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name. It
// honors context cancellation: once ctx is done, pending tasks are skipped
// and the results collected so far are returned.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	pending := make(chan Task, len(tasks))
	for _, task := range tasks {
		pending <- task
	}
	close(pending)

	done := make(chan Result, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range pending {
				if ctx.Err() != nil {
					return
				}
				data, err := task.Execute()
				done <- Result{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	results := make(map[string]Result, len(tasks))
	for {
		select {
		case result, ok := <-done:
			if !ok {
				return results
			}
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}
}
