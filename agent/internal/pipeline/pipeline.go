package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dewdrop/dewdrop/agent/internal/decision"
	"github.com/dewdrop/dewdrop/agent/internal/reading"
	"github.com/dewdrop/dewdrop/agent/internal/report"
	"github.com/dewdrop/dewdrop/agent/internal/transport"
	"github.com/dewdrop/dewdrop/pkg/types"
)

// Fetcher supplies the outdoor dewpoint.
type Fetcher interface {
	Fetch(ctx context.Context) (float64, error)
}

// Outcome describes a completed run.
type Outcome struct {
	Reading         reading.Reading
	OutdoorDewpoint float64
	Result          decision.Result
	Feed            *types.SensorFeed

	// Actuated is true when a light command was sent.
	Actuated bool
}

// Pipeline wires the probe's collaborators together.
type Pipeline struct {
	channel  transport.Channel
	outdoor  Fetcher
	reporter report.Reporter

	decide func(reading.Reading, float64) decision.Result
}

// New returns a Pipeline. The caller keeps ownership of ch and closes it.
func New(ch transport.Channel, outdoor Fetcher, reporter report.Reporter) *Pipeline {
	return &Pipeline{
		channel:  ch,
		outdoor:  outdoor,
		reporter: reporter,
		decide:   decision.Decide,
	}
}

// Run executes one cycle. When acquisition fails no decision is made and the
// returned Outcome is nil. When reporting or actuation fails the Outcome is
// still returned alongside the error.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	var (
		wg         sync.WaitGroup
		rd         reading.Reading
		outdoor    float64
		indoorErr  error
		outdoorErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rd, indoorErr = p.channel.PollForReading(ctx)
		if indoorErr != nil {
			indoorErr = fmt.Errorf("pipeline: indoor reading: %w", indoorErr)
		}
	}()
	go func() {
		defer wg.Done()
		outdoor, outdoorErr = p.outdoor.Fetch(ctx)
		if outdoorErr != nil {
			outdoorErr = fmt.Errorf("pipeline: outdoor dewpoint: %w", outdoorErr)
		}
	}()
	wg.Wait()

	if err := errors.Join(indoorErr, outdoorErr); err != nil {
		return nil, err
	}

	slog.Debug("pipeline: acquired", "reading", rd.String(), "outdoor_dewpoint", outdoor)

	res := p.decide(rd, outdoor)
	out := &Outcome{
		Reading:         rd,
		OutdoorDewpoint: outdoor,
		Result:          res,
		Feed:            report.NewFeed(res),
	}

	want := res.LEDOn()
	out.Actuated = want != rd.LEDOn

	var reportErr, actuateErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.reporter.Post(ctx, out.Feed); err != nil {
			reportErr = fmt.Errorf("pipeline: report: %w", err)
		}
	}()
	if out.Actuated {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.channel.Actuate(ctx, want); err != nil {
				actuateErr = fmt.Errorf("pipeline: actuate: %w", err)
			}
		}()
	} else {
		slog.Debug("pipeline: warning light already in desired state", "on", want)
	}
	wg.Wait()

	return out, errors.Join(reportErr, actuateErr)
}
