package tts

import (
	"context"
	"log/slog"
	"sync"
)

// DeliverFunc receives each synthesized clip in enqueue order.
type DeliverFunc func(text string, audio Audio)

// Queue serializes speech synthesis: texts are enqueued from any goroutine
// and a single consumer synthesizes and delivers them strictly in FIFO
// order, so only one utterance speaks at a time. Synthesis failures are
// logged and the utterance is dropped silently.
type Queue struct {
	synth   Synthesizer
	deliver DeliverFunc
	log     *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []string
	busy     bool
	closed   bool
	idleWait chan struct{}
	done     chan struct{}
}

// NewQueue starts the consumer goroutine. Close must be called to stop it.
func NewQueue(synth Synthesizer, deliver DeliverFunc, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{
		synth:    synth,
		deliver:  deliver,
		log:      log,
		idleWait: closedChan(),
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Enqueue appends text to the speech queue. Texts enqueued after Close are
// dropped.
func (q *Queue) Enqueue(text string) {
	if text == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if !q.busy && len(q.pending) == 0 {
		q.idleWait = make(chan struct{})
	}
	q.pending = append(q.pending, text)
	q.cond.Signal()
}

// Busy reports whether an utterance is being synthesized or waiting.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy || len(q.pending) > 0
}

// Drain blocks until the queue is empty and the consumer is idle, or the
// context is canceled.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		if !q.busy && len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		wait := q.idleWait
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush discards all queued texts. An utterance already being synthesized
// still completes.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.pending = nil
	q.cond.Signal()
	q.mu.Unlock()
}

// Close stops the consumer after the current utterance, discarding anything
// still queued. It blocks until the consumer has exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.pending = nil
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	q.mu.Lock()
	for {
		for !q.closed && len(q.pending) == 0 {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}

		text := q.pending[0]
		q.pending = q.pending[1:]
		q.busy = true
		q.mu.Unlock()

		audio, err := q.synth.Synthesize(context.Background(), text)
		if err != nil {
			q.log.Warn("speech synthesis failed, dropping utterance", slog.String("error", err.Error()))
		} else if len(audio.PCM) > 0 {
			q.deliver(text, audio)
		}

		q.mu.Lock()
		q.busy = false
		if len(q.pending) == 0 {
			close(q.idleWait)
			q.idleWait = closedChan()
		}
	}
}
