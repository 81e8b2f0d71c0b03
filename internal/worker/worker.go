package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/dago-node-render/internal/config"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/aescanero/dago-node-render/internal/filter"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TextCodeRenderFailed is the text code for render failures other than
// undefined filters
const TextCodeRenderFailed = "RENDER_FAILED"

// DataLoader loads template data stored out of band
type DataLoader interface {
	Load(ctx context.Context, id string) (map[string]interface{}, error)
}

// Worker represents the render worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	engine        *template.Engine
	dataLoader    DataLoader
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	engine *template.Engine,
	dataLoader DataLoader,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		engine:        engine,
		dataLoader:    dataLoader,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting render worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	// Start processing work
	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("render worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight job to finish
func (w *Worker) Stop() error {
	w.logger.Info("stopping render worker", zap.String("worker_id", w.id))

	// Cancel context to stop work processing
	w.cancel()
	w.wg.Wait()

	w.logger.Info("render worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	// Try to create the group
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if err.Error() == "BUSYGROUP Consumer Group name already exists" {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			// Read from stream
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					// No messages available or shutting down
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			// Process each message
			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single render request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render request",
		zap.String("message_id", messageID),
	)

	// Parse the render request
	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	// Render and publish
	result, err := w.processRenderRequest(w.ctx, request)
	if err == nil {
		err = w.publishResult(result)
	}
	if err != nil {
		w.logger.Error("failed to process render request",
			zap.String("message_id", messageID),
			zap.String("job_id", request.JobID),
			zap.Error(err),
		)
		// Publish error event
		w.publishError(request, err)
	}

	// Acknowledge the message
	w.acknowledgeMessage(messageID)
}

// RenderRequest represents a render work request
type RenderRequest struct {
	JobID    string                 `json:"job_id"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data,omitempty"`
	DataKey  string                 `json:"data_key,omitempty"`
	Filters  []string               `json:"filters,omitempty"`
}

// RenderResult represents a completed render
type RenderResult struct {
	JobID       string             `json:"job_id"`
	Output      string             `json:"output"`
	ContentType filter.ContentType `json:"content_type"`
	Timestamp   time.Time          `json:"timestamp"`
}

// parseRenderRequest parses a render request from a Redis message
func parseRenderRequest(values map[string]interface{}) (*RenderRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request RenderRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render request: %w", err)
	}

	if request.Template == "" {
		return nil, fmt.Errorf("render request has no template")
	}

	if request.JobID == "" {
		request.JobID = uuid.NewString()
	}

	return &request, nil
}

// processRenderRequest renders a request through the engine
func (w *Worker) processRenderRequest(ctx context.Context, request *RenderRequest) (*RenderResult, error) {
	data := request.Data
	if request.DataKey != "" {
		if w.dataLoader == nil {
			return nil, fmt.Errorf("data_key %q given but no data store is configured", request.DataKey)
		}

		loaded, err := w.dataLoader.Load(ctx, request.DataKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load data: %w", err)
		}
		data = loaded
	}

	output, contentType, err := w.engine.RenderPipeline(request.Template, data, request.Filters...)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	return &RenderResult{
		JobID:       request.JobID,
		Output:      output,
		ContentType: contentType,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// publishResult publishes a completed render
func (w *Worker) publishResult(result *RenderResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Publish to result stream
	_, err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published render result",
		zap.String("job_id", result.JobID),
		zap.String("content_type", string(result.ContentType)),
	)

	return nil
}

// errorEvent builds the error event published for a failed request
func errorEvent(request *RenderRequest, err error) map[string]interface{} {
	rich := errorEnvelope(err)

	event := map[string]interface{}{
		"job_id":    request.JobID,
		"error":     err.Error(),
		"text_code": rich.TextCode,
		"category":  fmt.Sprint(rich.Category),
		"code":      rich.Code,
		"timestamp": time.Now().UTC(),
	}
	if undefined, ok := filter.IsUndefinedFilter(err); ok {
		event["filter"] = undefined.Name
		if undefined.Suggestion != "" {
			event["suggestion"] = undefined.Suggestion
		}
	}

	return event
}

// errorEnvelope maps a render failure to a go-errors envelope
func errorEnvelope(err error) *goerrors.Error {
	if undefined, ok := filter.IsUndefinedFilter(err); ok {
		return undefined.ToServiceError()
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "render failed").
		WithTextCode(TextCodeRenderFailed)
}

// publishError publishes an error event
func (w *Worker) publishError(request *RenderRequest, err error) {
	data, marshalErr := json.Marshal(errorEvent(request, err))
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	// Publish error to a separate stream
	_, publishErr := w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
