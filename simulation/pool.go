package simulation

import "sync"

type job struct {
	task func()
}

// workerPool runs submitted tasks on a fixed number of goroutines.
type workerPool struct {
	workers   int
	jobQueue  chan job
	waitGroup sync.WaitGroup
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &workerPool{
		workers:  workers,
		jobQueue: make(chan job, workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}
	return pool
}

func (wp *workerPool) worker() {
	defer wp.waitGroup.Done()
	for j := range wp.jobQueue {
		j.task()
	}
}

func (wp *workerPool) submit(task func()) {
	wp.jobQueue <- job{task: task}
}

// shutdown waits for queued tasks to finish.
func (wp *workerPool) shutdown() {
	close(wp.jobQueue)
	wp.waitGroup.Wait()
}
