package luxstral

import "sync"

// job describes one worker's slice of oscillators to render for the
// current block. oscs is a sub-slice of the engine's persistent
// oscillator array (not a copy), so phase and smoothed-volume state
// carries across blocks exactly as it would in a single-threaded render.
type job struct {
	oscs     []oscillator
	gray     []float32
	grayBase int // index of oscs[0] within the full grayscale/gains vectors
	volScale float32
	gainsL   []float32
	gainsR   []float32
	outL     []float32
	outR     []float32
}

// workerPool is a fixed set of goroutines parked on a channel, mirroring
// the teacher's coprocessor worker-ticket idiom: workers are started once
// at Reconfigure time and live for the engine's lifetime, avoiding a
// goroutine spawn on every block.
type workerPool struct {
	jobs chan job
	wg   sync.WaitGroup
	quit chan struct{}
}

func newWorkerPool(n int) *workerPool {
	p := &workerPool{
		jobs: make(chan job, n),
		quit: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	for {
		select {
		case j := <-p.jobs:
			renderRange(j)
			p.wg.Done()
		case <-p.quit:
			return
		}
	}
}

// Dispatch submits a job and counts it against the pool's WaitGroup.
func (p *workerPool) Dispatch(j job) {
	p.wg.Add(1)
	p.jobs <- j
}

// Wait blocks until every dispatched job for the current block has
// completed — the per-block barrier named in spec §4.3.
func (p *workerPool) Wait() {
	p.wg.Wait()
}

// Close stops all worker goroutines; called from Engine teardown, never
// from the RT path.
func (p *workerPool) Close() {
	close(p.quit)
}

// renderRange accumulates every oscillator in the job's slice into its
// private L/R partial buffers. outL/outR must already be zeroed by the
// caller before dispatch.
func renderRange(j job) {
	blockLen := len(j.outL)
	for local := range j.oscs {
		osc := &j.oscs[local]
		idx := j.grayBase + local

		var target float32
		if idx < len(j.gray) {
			target = j.gray[idx] * j.volScale
		}
		lg, rg := float32(1), float32(1)
		if idx < len(j.gainsL) {
			lg = j.gainsL[idx]
			rg = j.gainsR[idx]
		}
		for n := 0; n < blockLen; n++ {
			cur := osc.step(target)
			s := osc.nextSample()
			v := s * cur
			j.outL[n] += v * lg
			j.outR[n] += v * rg
		}
	}
}
