package main

import (
	"context"
	"errors"
	"log/slog"

	"i4.energy/across/loragw/rn2483"
)

// Sender serializes uplink transmissions onto the single driver instance.
// The driver provides no internal locking and must not be used from more
// than one goroutine, so HTTP and MQTT ingestion both enqueue here and one
// worker owns the driver.
type Sender struct {
	Logger *slog.Logger
	Driver *rn2483.Driver

	queue chan uplink
}

type uplink struct {
	payload []byte
	// join requests a fresh OTAA join instead of a transmission
	join   bool
	result chan uplinkResult
}

type uplinkResult struct {
	outcome rn2483.TxOutcome
	err     error
}

// NewSender creates a sender with a bounded queue.
func NewSender(logger *slog.Logger, driver *rn2483.Driver, depth int) *Sender {
	if depth <= 0 {
		depth = 16
	}
	return &Sender{
		Logger: logger,
		Driver: driver,
		queue:  make(chan uplink, depth),
	}
}

// Run processes queued uplinks until the context is cancelled. It is the
// only goroutine that touches the driver after startup.
func (s *Sender) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			if req.join {
				req.result <- uplinkResult{err: s.Driver.InitializeOTAA(ctx)}
				continue
			}
			req.result <- s.send(ctx, req.payload)
		}
	}
}

// send performs one transmission, rejoining once if the module lost the
// network session.
func (s *Sender) send(ctx context.Context, payload []byte) uplinkResult {
	out, err := s.Driver.Send(ctx, payload)
	var txErr *rn2483.TxError
	if errors.As(err, &txErr) && txErr.Kind == rn2483.NotJoined {
		s.Logger.Warn("session lost, rejoining")
		if joinErr := s.Driver.InitializeOTAA(ctx); joinErr != nil {
			s.Logger.Error("rejoin failed", "error", joinErr)
			return uplinkResult{err: err}
		}
		out, err = s.Driver.Send(ctx, payload)
	}
	if err != nil {
		s.Logger.Error("uplink failed", "error", err, "payload_length", len(payload))
	} else {
		s.Logger.Info("uplink sent", "payload_length", len(payload), "downlink", out.Downlink != "")
	}
	return uplinkResult{outcome: out, err: err}
}

// Enqueue submits one payload and blocks until the transmission resolves or
// the context is cancelled.
func (s *Sender) Enqueue(ctx context.Context, payload []byte) (rn2483.TxOutcome, error) {
	res, err := s.submit(ctx, uplink{payload: payload, result: make(chan uplinkResult, 1)})
	if err != nil {
		return rn2483.TxOutcome{}, err
	}
	return res.outcome, res.err
}

// Join requests a fresh OTAA join through the worker, so it never races a
// transmission in flight.
func (s *Sender) Join(ctx context.Context) error {
	res, err := s.submit(ctx, uplink{join: true, result: make(chan uplinkResult, 1)})
	if err != nil {
		return err
	}
	return res.err
}

func (s *Sender) submit(ctx context.Context, req uplink) (uplinkResult, error) {
	select {
	case s.queue <- req:
	case <-ctx.Done():
		return uplinkResult{}, ctx.Err()
	}

	select {
	case res := <-req.result:
		return res, nil
	case <-ctx.Done():
		return uplinkResult{}, ctx.Err()
	}
}
