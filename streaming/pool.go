package streaming

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gekko3d/voxstream/logging"
	"github.com/gekko3d/voxstream/voxel"
)

// Job asks for the chunk at Coord. Epoch identifies the slot that requested it.
type Job struct {
	Coord voxel.ChunkCoord
	Epoch uint64
}

// Result is a finished Job. Err is set and Chunk is nil when generation failed.
type Result struct {
	Job
	Chunk *voxel.Chunk
	Err   error
}

// Pool runs chunk generation on background goroutines. Submit never blocks and
// results are collected with TryReceive, so the frame loop never waits on it.
type Pool struct {
	gen     voxel.Generator
	workers int
	logger  logging.Logger

	jobsMu sync.Mutex
	jobs   []Job
	signal chan struct{}

	resultsMu sync.Mutex
	results   []Result

	inFlight atomic.Int64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewPool(gen voxel.Generator, workers int, logger logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pool{
		gen:     gen,
		workers: workers,
		logger:  logger,
		signal:  make(chan struct{}, 1),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop cancels the workers and waits for them. Queued jobs are dropped.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.cancel = nil

	p.jobsMu.Lock()
	p.inFlight.Add(-int64(len(p.jobs)))
	p.jobs = nil
	p.jobsMu.Unlock()
}

func (p *Pool) Submit(job Job) {
	p.inFlight.Add(1)

	p.jobsMu.Lock()
	p.jobs = append(p.jobs, job)
	p.jobsMu.Unlock()

	p.wake()
}

// TryReceive pops one finished result if any is ready.
func (p *Pool) TryReceive() (Result, bool) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	if len(p.results) == 0 {
		return Result{}, false
	}
	r := p.results[0]
	p.results[0] = Result{}
	p.results = p.results[1:]
	return r, true
}

// InFlight counts jobs submitted but not yet received.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

func (p *Pool) wake() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Pool) next() (Job, bool) {
	p.jobsMu.Lock()
	defer p.jobsMu.Unlock()

	if len(p.jobs) == 0 {
		return Job{}, false
	}
	job := p.jobs[0]
	p.jobs = p.jobs[1:]
	if len(p.jobs) > 0 {
		p.wake()
	}
	return job, true
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		job, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.signal:
				continue
			}
		}
		if ctx.Err() != nil {
			// Stop only accounts for jobs still queued.
			p.inFlight.Add(-1)
			return
		}

		res := p.generate(id, job)

		p.resultsMu.Lock()
		p.results = append(p.results, res)
		p.resultsMu.Unlock()
	}
}

// generate runs one job. A panicking generator yields a Result carrying Err
// and no chunk, so the worker survives and the job is still accounted for.
func (p *Pool) generate(id int, job Job) (res Result) {
	res.Job = job
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("generation worker %d panicked on chunk %v: %v", id, job.Coord, r)
			res.Chunk = nil
			res.Err = fmt.Errorf("generate chunk %v: %v", job.Coord, r)
		}
	}()
	res.Chunk = p.gen.Generate(job.Coord)
	return res
}

func (p *Pool) received() {
	p.inFlight.Add(-1)
}
