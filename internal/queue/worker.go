package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forPelevin/viralscan/internal/config"
	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/pipeline"
	"github.com/forPelevin/viralscan/internal/types"
	"github.com/forPelevin/viralscan/internal/usecase"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Command is an extraction job as it arrives on the jobs queue:
// {"job_id": ..., "transcript": [...], "duration": N, "clip_duration": N}.
type Command struct {
	JobID string `json:"job_id"`
	types.Transcript
	ClipDuration int `json:"clip_duration"`
}

// Reply is published to the results queue for every consumed command.
type Reply struct {
	JobID    string         `json:"job_id"`
	Moments  []types.Moment `json:"moments"`
	Fallback bool           `json:"fallback"`
	Error    string         `json:"error,omitempty"`
}

type Processor interface {
	Process(ctx context.Context, job pipeline.Job) (usecase.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

type Worker struct {
	proc    Processor
	pub     Publisher
	results string
	log     logger.Logger
}

func NewWorker(proc Processor, pub Publisher, results string, log logger.Logger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	return &Worker{proc: proc, pub: pub, results: results, log: log}
}

// Run handles deliveries until ctx is done or the channel closes. Every
// delivery gets a reply; it is acked once the reply is published.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.log.Info(ctx, "received job (%d bytes)", len(d.Body))
			reply := w.handle(ctx, d.Body)

			body, err := json.Marshal(reply)
			if err != nil {
				w.log.Error(ctx, "marshal reply for %s: %v", reply.JobID, err)
				_ = d.Nack(false, false)
				continue
			}
			if err := w.pub.Publish(ctx, w.results, body); err != nil {
				w.log.Error(ctx, "publish reply for %s: %v", reply.JobID, err)
				_ = d.Nack(false, true)
				continue
			}
			if err := d.Ack(false); err != nil {
				w.log.Error(ctx, "ack %s: %v", reply.JobID, err)
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, body []byte) Reply {
	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		id := uuid.NewString()
		w.log.Warn(ctx, "job %s: malformed command: %v", id, err)
		return Reply{JobID: id, Moments: []types.Moment{}, Error: fmt.Sprintf("decode command: %v", err)}
	}
	if cmd.JobID == "" {
		cmd.JobID = uuid.NewString()
	}
	if cmd.ClipDuration == 0 {
		cmd.ClipDuration = config.DefaultClipDuration
	}
	reply := Reply{JobID: cmd.JobID, Moments: []types.Moment{}}
	if err := config.ValidateClipDuration(cmd.ClipDuration); err != nil {
		reply.Error = err.Error()
		return reply
	}

	res, err := w.proc.Process(ctx, pipeline.Job{
		ID:           cmd.JobID,
		Transcript:   cmd.Transcript,
		ClipDuration: cmd.ClipDuration,
	})
	if err != nil {
		w.log.Error(ctx, "job %s: %v", cmd.JobID, err)
		reply.Error = err.Error()
		return reply
	}
	if res.Moments != nil {
		reply.Moments = res.Moments
	}
	reply.Fallback = res.Fallback
	w.log.Info(ctx, "job %s: %d moments (fallback=%t)", cmd.JobID, len(reply.Moments), reply.Fallback)
	return reply
}
