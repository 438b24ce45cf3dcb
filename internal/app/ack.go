package app

import (
	"context"
	"log"
	"time"
)

// Acknowledger submits local changes to a remote party service.
// Results are informational: a failed acknowledgement never undoes a change.
type Acknowledger interface {
	SubmitCreate(ctx context.Context, p Party) error
	SubmitDelete(ctx context.Context, p Party) error
}

// DefaultAckDelay is the latency of the simulated party service
const DefaultAckDelay = time.Second

// SimulatedAcknowledger stands in for a party service by waiting a fixed delay
type SimulatedAcknowledger struct {
	Delay time.Duration
}

// SubmitCreate simulates a POST of the new party
func (a SimulatedAcknowledger) SubmitCreate(ctx context.Context, p Party) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	log.Printf("Simulating POST request to server: %s %q", p.Date, p.Description)
	return nil
}

// SubmitDelete simulates a DELETE of the party
func (a SimulatedAcknowledger) SubmitDelete(ctx context.Context, p Party) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	log.Printf("Simulating DELETE request to server: %s %q", p.Date, p.Description)
	return nil
}

func (a SimulatedAcknowledger) wait(ctx context.Context) error {
	timer := time.NewTimer(a.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
