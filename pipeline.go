/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gomarc

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type item struct {
	record     *Record
	validation *Validation
	err        error
}

// batchJob is one unit of decode work: a group of record spans over a chunk
// buffer that is read-only once filled. out has capacity one so a worker
// never blocks delivering its result.
type batchJob struct {
	buf   []byte
	spans []Slice
	out   chan []item
}

// Pipeline is the push-based, multi-core record stream.
//
// One producer goroutine owns the source: it fills chunk buffers, scans them
// for record boundaries and carries any trailing partial record into the
// next chunk. Batches of spans are decoded by a pool of workers; results are
// collected in submission order and pushed one record at a time onto a
// bounded channel read by Next. Records are therefore delivered in source
// order even though decode happens in parallel.
//
// Backpressure: a full result channel blocks the collector, which
// transitively stalls the workers and further source reads. There is no
// other memory bound.
//
// Termination: end of stream closes the result channel after the last
// batch's results. A fatal error (source failure, truncated input, or a
// decode failure under Strict without skipping) is the final item delivered,
// exactly once, then the channel closes.
//
// Next must be called from a single goroutine. Close cancels the pipeline,
// joins its goroutines and releases the source.
type Pipeline struct {
	opts        *options
	src         Source
	unmarshaler Unmarshaler
	results     chan item
	quit        chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
	fatal       error
	skipped     int64
	closed      bool
	exhausted   bool
	log         *log.Entry
}

func NewPipeline(src Source, opts ...Option) *Pipeline {
	o := newOptions(opts...)
	p := &Pipeline{
		opts:        o,
		src:         src,
		unmarshaler: &unmarshaler{opts: o},
		results:     make(chan item, o.channelCapacity),
		quit:        make(chan struct{}),
		log:         log.WithField("session", uuid.New().String()),
	}

	jobs := make(chan *batchJob, o.workers)
	pending := make(chan *batchJob, o.workers*2)

	p.wg.Add(o.workers)
	for i := 0; i < o.workers; i++ {
		go p.worker(jobs)
	}
	p.wg.Add(2)
	go p.producer(jobs, pending)
	go p.collector(pending)

	p.log.WithField("workers", o.workers).Debug("pipeline started")
	return p
}

// Next returns the next record in source order, a terminal error, or io.EOF
// once the stream is exhausted. After Close it returns ErrPipelineClosed.
func (p *Pipeline) Next() (*Record, *Validation, error) {
	if p.closed {
		return nil, nil, ErrPipelineClosed
	}
	if p.exhausted {
		return nil, nil, io.EOF
	}
	it, ok := <-p.results
	if !ok {
		p.exhausted = true
		return nil, nil, io.EOF
	}
	return it.record, it.validation, it.err
}

// Skipped returns the number of undecodable records dropped so far.
func (p *Pipeline) Skipped() int64 {
	return atomic.LoadInt64(&p.skipped)
}

// Close cancels the pipeline. The producer observes the cancellation on its
// next blocked send, unwinds and joins; the source is closed if it is an
// io.Closer. No partial record is ever delivered.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.stop()
	p.wg.Wait()
	if c, ok := p.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Pipeline) stop() {
	p.quitOnce.Do(func() { close(p.quit) })
}

// producer owns the source. It fills chunk buffers, scans for boundaries,
// groups the spans into batches and hands each batch to the worker pool and,
// in the same order, to the collector.
func (p *Pipeline) producer(jobs chan<- *batchJob, pending chan<- *batchJob) {
	defer p.wg.Done()
	defer close(pending)
	defer close(jobs)

	var carry []byte
	for {
		select {
		case <-p.quit:
			return
		default:
		}

		chunk := make([]byte, len(carry)+p.opts.chunkSize)
		copy(chunk, carry)
		n, err := p.src.Read(chunk[len(carry):])
		buf := chunk[:len(carry)+n]

		spans, next := ScanBoundaries(buf)
		// The carry aliases buf, which stays immutable; it is copied into the
		// next chunk buffer before anything is read into it.
		carry = buf[next:]

		for start := 0; start < len(spans); start += p.opts.batchSize {
			end := min(start+p.opts.batchSize, len(spans))
			job := &batchJob{buf: buf, spans: spans[start:end], out: make(chan []item, 1)}
			select {
			case jobs <- job:
			case <-p.quit:
				return
			}
			select {
			case pending <- job:
			case <-p.quit:
				return
			}
		}

		if err == io.EOF {
			if len(carry) > 0 {
				p.fatal = newTruncatedError(len(carry))
				p.log.WithField("remaining", len(carry)).Debug("stream ended mid-record")
			}
			return
		}
		if err != nil {
			p.fatal = newSourceError(err)
			return
		}
	}
}

// worker decodes batches. Decode is pure computation over an owned span;
// a worker never blocks.
func (p *Pipeline) worker(jobs <-chan *batchJob) {
	defer p.wg.Done()
	for job := range jobs {
		items := make([]item, len(job.spans))
		for i, span := range job.spans {
			it := item{}
			it.record, it.validation, it.err = p.unmarshaler.Unmarshal(job.buf[span.Offset : span.Offset+span.Length])
			items[i] = it
		}
		job.out <- items
	}
}

// collector awaits batch results in submission order and pushes records one
// at a time onto the bounded result channel.
func (p *Pipeline) collector(pending <-chan *batchJob) {
	defer p.wg.Done()
	defer close(p.results)

	for job := range pending {
		items := <-job.out
		for _, it := range items {
			if it.err != nil {
				if p.opts.skipInvalidRecords || p.opts.recovery != Strict {
					atomic.AddInt64(&p.skipped, 1)
					p.log.WithError(it.err).Debug("skipping undecodable record")
					continue
				}
				// Fatal under Strict: deliver as the final item, then shut down.
				select {
				case p.results <- it:
				case <-p.quit:
				}
				p.stop()
				return
			}
			select {
			case p.results <- it:
			case <-p.quit:
				return
			}
		}
	}

	if p.fatal != nil {
		select {
		case p.results <- item{err: p.fatal}:
		case <-p.quit:
		}
	}
}
