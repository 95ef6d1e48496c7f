package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"carbscan-backend/models"
)

// SendResult is the aggregate outcome of one dispatch run. Partial failures
// are folded into the counters and error list; they never abort the run.
type SendResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Dispatcher resolves an audience to device endpoints, submits them to the
// push gateway in bounded chunks and reconciles registry and message state
// from the returned tickets.
type Dispatcher struct {
	registry *DeviceRegistry
	store    *MessageStore
	gateway  PushGateway
	results  *ResultCache
}

func NewDispatcher(registry *DeviceRegistry, store *MessageStore, gateway PushGateway, results *ResultCache) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		gateway:  gateway,
		results:  results,
	}
}

// SendToAudience pushes a notification to the given users' devices, or to
// every enabled device when no users are named. "Nobody to notify" is a
// normal outcome reported in the result, not an error; the error return is
// reserved for storage failures.
func (d *Dispatcher) SendToAudience(ctx context.Context, title, body string, data map[string]any, targetUserIDs []string) (*SendResult, error) {
	candidates, err := d.resolveAudience(targetUserIDs)
	if err != nil {
		return nil, err
	}

	result := &SendResult{}

	if len(candidates) == 0 {
		result.Errors = append(result.Errors, "No registered devices found")
		return result, nil
	}

	valid := make([]models.UserDevice, 0, len(candidates))
	for _, dev := range candidates {
		if !d.gateway.IsValidToken(dev.Token) {
			log.Printf("dropping device %d: token is not a valid push token", dev.ID)
			continue
		}
		valid = append(valid, dev)
	}
	if len(valid) == 0 {
		result.FailureCount = len(candidates)
		result.Errors = append(result.Errors, "No valid push tokens found")
		return result, nil
	}

	max := d.gateway.MaxBatchSize()
	for start := 0; start < len(valid); start += max {
		end := start + max
		if end > len(valid) {
			end = len(valid)
		}
		d.submitChunk(ctx, valid[start:end], title, body, data, result)
	}

	return result, nil
}

// submitChunk sends one gateway-sized batch and folds the tickets into the
// result. A transport failure fails the whole chunk but not the run.
func (d *Dispatcher) submitChunk(ctx context.Context, devices []models.UserDevice, title, body string, data map[string]any, result *SendResult) {
	messages := make([]PushMessage, len(devices))
	for i, dev := range devices {
		messages[i] = PushMessage{
			To:    dev.Token,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		}
	}

	tickets, err := d.gateway.SubmitBatch(ctx, messages)
	if err != nil {
		result.FailureCount += len(devices)
		result.Errors = append(result.Errors, fmt.Sprintf("batch submit failed: %v", err))
		return
	}

	// Tickets come back in submission order; index i belongs to devices[i].
	for i, ticket := range tickets {
		dev := devices[i]
		if ticket.Status == TicketStatusOK {
			result.SuccessCount++
			if err := d.registry.MarkNotified(dev.ID); err != nil {
				log.Printf("failed to mark device %d notified: %v", dev.ID, err)
			}
			continue
		}

		result.FailureCount++
		reason := ticket.Reason()
		result.Errors = append(result.Errors, fmt.Sprintf("push to %s failed: %s", dev.Token, reason))

		if reason == ErrorDeviceNotRegistered {
			// Token-hygiene feedback loop: the push service no longer knows
			// this device, so stop selecting it.
			if _, err := d.registry.Unregister(dev.Token); err != nil {
				log.Printf("failed to unregister stale token for device %d: %v", dev.ID, err)
			}
		}
	}
}

func (d *Dispatcher) resolveAudience(targetUserIDs []string) ([]models.UserDevice, error) {
	if len(targetUserIDs) == 0 {
		return d.registry.ListAllEnabled()
	}

	var candidates []models.UserDevice
	seen := make(map[uint]bool)
	for _, uid := range targetUserIDs {
		devices, err := d.registry.ListForUser(uid)
		if err != nil {
			return nil, err
		}
		for _, dev := range devices {
			if seen[dev.ID] {
				continue
			}
			seen[dev.ID] = true
			candidates = append(candidates, dev)
		}
	}
	return candidates, nil
}

// SendStoredMessage claims a pending message, dispatches it to all enabled
// devices and writes the outcome back. A missing or already-processed
// message yields a zero result with an explanatory string.
func (d *Dispatcher) SendStoredMessage(ctx context.Context, messageID string) (*SendResult, error) {
	msg, err := d.store.GetByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return &SendResult{Errors: []string{"Notification message not found"}}, nil
	}
	if msg.Status != models.MessageStatusPending {
		return &SendResult{Errors: []string{fmt.Sprintf("Message already %s", msg.Status)}}, nil
	}

	claimed, err := d.store.TryMarkSending(msg.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race to a concurrent trigger.
		status := models.MessageStatusSending
		if current, err := d.store.GetByID(msg.ID); err == nil && current != nil {
			status = current.Status
		}
		return &SendResult{Errors: []string{fmt.Sprintf("Message already %s", status)}}, nil
	}

	var data map[string]any
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, d.failMessage(msg.ID, fmt.Errorf("invalid message payload: %w", err))
		}
	}

	result, err := d.SendToAudience(ctx, msg.Title, msg.Body, data, nil)
	if err != nil {
		return nil, d.failMessage(msg.ID, err)
	}

	if err := d.store.UpdateStatus(msg.ID, models.MessageStatusSent, &result.SuccessCount, &result.FailureCount); err != nil {
		return nil, err
	}

	if err := d.results.Store(ctx, msg.ID, result); err != nil {
		log.Printf("failed to cache send result for message %s: %v", msg.ID, err)
	}

	return result, nil
}

func (d *Dispatcher) failMessage(messageID string, cause error) error {
	if err := d.store.UpdateStatus(messageID, models.MessageStatusFailed, nil, nil); err != nil {
		log.Printf("failed to mark message %s failed: %v", messageID, err)
	}
	return cause
}

// ProcessDue sends every pending message whose scheduled time has passed.
// One message failing never blocks the rest of the batch.
func (d *Dispatcher) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.ListDue(now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, msg := range due {
		result, err := d.SendStoredMessage(ctx, msg.ID)
		if err != nil {
			log.Printf("sending message %s failed: %v", msg.ID, err)
			if err := d.store.UpdateStatus(msg.ID, models.MessageStatusFailed, nil, nil); err != nil {
				log.Printf("failed to mark message %s failed: %v", msg.ID, err)
			}
			continue
		}
		processed++
		log.Printf("message %s processed: %d sent, %d failed", msg.ID, result.SuccessCount, result.FailureCount)
	}
	return processed, nil
}
