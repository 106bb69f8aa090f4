package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var heartBeatPing = []byte(delimiter + whitespace + "ping" + string(byteLFLF))

// WriterConfig configures a Writer. Context and ResponseWriter are required.
type WriterConfig struct {
	Context        context.Context
	ResponseWriter http.ResponseWriter
	QueueSize      int
	HeartBeat      time.Duration
}

func (c *WriterConfig) validate() error {
	if c.Context == nil {
		return errors.New("sse: missing context")
	}
	if c.ResponseWriter == nil {
		return errors.New("sse: missing response writer")
	}
	if _, ok := c.ResponseWriter.(http.Flusher); !ok {
		return errors.New("sse: response writer does not implement http.Flusher")
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return nil
}

// Writer streams Messages to one client connection, with a background
// heartbeat to hold the connection open across slow provider responses.
type Writer struct {
	config       *WriterConfig
	isClosed     atomic.Bool
	waitGroup    sync.WaitGroup
	ctx          context.Context
	encoder      *Encoder
	httpResponse http.ResponseWriter
	httpFlusher  http.Flusher
	closeSignal  chan struct{}
	messageQueue chan []byte
	mu           sync.Mutex
	errs         []error
}

func NewWriter(config *WriterConfig) (*Writer, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	w := &Writer{
		config:       config,
		ctx:          config.Context,
		encoder:      NewEncoder(),
		httpResponse: config.ResponseWriter,
		httpFlusher:  config.ResponseWriter.(http.Flusher),
		closeSignal:  make(chan struct{}),
		messageQueue: make(chan []byte, config.QueueSize),
	}
	w.initialize()
	return w, nil
}

func (w *Writer) initialize() {
	header := w.httpResponse.Header()
	header.Set("Content-Type", "text/event-stream; charset=utf-8")
	header.Set("Connection", "keep-alive")
	if header.Get("Cache-Control") == "" {
		header.Set("Cache-Control", "no-cache")
	}

	w.waitGroup.Add(3)
	go w.listenContext()
	go w.processMessageQueue()
	go w.startHeartbeatLoop()
}

func (w *Writer) writeDataToClient(data []byte) error {
	if _, err := w.httpResponse.Write(data); err != nil {
		return err
	}
	w.httpFlusher.Flush()
	return nil
}

func (w *Writer) recordError(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

func (w *Writer) sendHeartbeatNonBlocking() {
	if w.isClosed.Load() {
		return
	}
	select {
	case w.messageQueue <- heartBeatPing:
	default:
	}
}

func (w *Writer) startHeartbeatLoop() {
	defer w.waitGroup.Done()
	if w.config.HeartBeat <= 0 {
		return
	}
	ticker := time.NewTicker(w.config.HeartBeat)
	defer ticker.Stop()
	for {
		select {
		case <-w.closeSignal:
			return
		case <-ticker.C:
			w.sendHeartbeatNonBlocking()
		}
	}
}

func (w *Writer) drainMessageQueue() {
	close(w.messageQueue)
	for msg := range w.messageQueue {
		w.recordError(w.writeDataToClient(msg))
	}
	w.recordError(w.writeDataToClient(byteLFLF))
}

func (w *Writer) processMessageQueue() {
	defer w.waitGroup.Done()
	defer w.drainMessageQueue()
	for {
		select {
		case <-w.closeSignal:
			return
		case msg := <-w.messageQueue:
			w.recordError(w.writeDataToClient(msg))
		}
	}
}

func (w *Writer) listenContext() {
	defer w.waitGroup.Done()
	select {
	case <-w.closeSignal:
	case <-w.ctx.Done():
		w.recordError(w.ctx.Err())
		_ = w.Close()
	}
}

// Close stops accepting new messages, flushes pending ones, and waits for
// the background goroutines to exit. Safe to call more than once.
func (w *Writer) Close() error {
	if w.isClosed.Swap(true) {
		return w.Error()
	}
	close(w.closeSignal)
	w.waitGroup.Wait()
	return w.Error()
}

// Send encodes and enqueues msg. Blocks if the queue is full until space
// frees up or the writer closes.
func (w *Writer) Send(msg *Message) error {
	if w.isClosed.Load() {
		return errors.New("sse: writer is closed")
	}
	encoded, err := w.encoder.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case w.messageQueue <- encoded:
		return nil
	case <-w.closeSignal:
		return errors.New("sse: writer is closed")
	}
}

// SendEvent sends an event-only message, with a single newline as data so
// older browsers reliably fire the event listener.
func (w *Writer) SendEvent(event string) error {
	return w.Send(&Message{Event: event, Data: byteLF})
}

// SendData JSON-encodes data and sends it as the message payload.
func (w *Writer) SendData(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal payload: %w", err)
	}
	return w.Send(&Message{Data: payload})
}

// Error returns the joined set of errors recorded during the writer's
// lifetime, or nil if there were none.
func (w *Writer) Error() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}
