package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/models"
)

var ErrNotConnected = errors.New("sender not connected")

// Sender delivers commands to the vehicle over one transport
type Sender interface {
	SendDrive(context.Context, models.DriveCommand) error
	SendPilot(context.Context, models.PilotCommand) error
	Close() error
}

type job struct {
	drive *models.DriveCommand
	pilot *models.PilotCommand
}

// Dispatcher queues commands and sends them one at a time so callers never block on the network
type Dispatcher struct {
	sender    Sender
	logger    *zap.SugaredLogger
	queue     chan job
	afterSend func(models.DriveCommand)

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

type Stats struct {
	Sent    int64
	Dropped int64
	Failed  int64
}

func NewDispatcher(sender Sender, queueSize int, logger *zap.SugaredLogger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan job, queueSize),
	}
}

// OnSent registers fn to run after every drive command leaves the queue. Set before Start.
func (d *Dispatcher) OnSent(fn func(models.DriveCommand)) {
	d.afterSend = fn
}

func (d *Dispatcher) Submit(cmd models.DriveCommand) {
	d.enqueue(job{drive: &cmd})
}

func (d *Dispatcher) SubmitPilot(cmd models.PilotCommand) {
	d.enqueue(job{pilot: &cmd})
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.queue <- j:
	default:
		d.dropped.Add(1)
		d.logger.Warn("command queue full, dropping command")
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Dropped: d.dropped.Load(),
		Failed:  d.failed.Load(),
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting command dispatcher")
	for {
		select {
		case <-ctx.Done():
			d.logger.Infof("stopping command dispatcher: %s", ctx.Err())
			return ctx.Err()
		case j := <-d.queue:
			d.send(ctx, j)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, j job) {
	switch {
	case j.drive != nil:
		err := d.sender.SendDrive(ctx, *j.drive)
		d.record(err, "drive")
		if d.afterSend != nil {
			d.afterSend(*j.drive)
		}
	case j.pilot != nil:
		err := d.sender.SendPilot(ctx, *j.pilot)
		d.record(err, "pilot")
	}
}

func (d *Dispatcher) record(err error, kind string) {
	if err != nil {
		d.failed.Add(1)
		d.logger.Warnf("failed sending %s command: %s", kind, err)
		return
	}
	d.sent.Add(1)
}

func encode(in any) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed encoding %T: %w", in, err)
	}
	return string(b), nil
}

func decode(in string, obj any) error {
	err := json.Unmarshal([]byte(in), obj)
	if err != nil {
		return fmt.Errorf("failed decoding %T: %w", obj, err)
	}
	return nil
}
