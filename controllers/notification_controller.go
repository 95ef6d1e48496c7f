package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"carbscan-backend/models"
	"carbscan-backend/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Store      *services.MessageStore
	Dispatcher *services.Dispatcher
	Registry   *services.DeviceRegistry
	Results    *services.ResultCache
}

func NewNotificationController(store *services.MessageStore, dispatcher *services.Dispatcher, registry *services.DeviceRegistry, results *services.ResultCache) *NotificationController {
	return &NotificationController{
		Store:      store,
		Dispatcher: dispatcher,
		Registry:   registry,
		Results:    results,
	}
}

type createMessageReq struct {
	Title        string         `json:"title" binding:"required"`
	Body         string         `json:"body"`
	Data         map[string]any `json:"data"`
	Category     string         `json:"category"`
	Audience     string         `json:"audience" binding:"omitempty,oneof=all subscribed free"`
	ScheduledFor *time.Time     `json:"scheduled_for"`
	CreatedBy    string         `json:"created_by"`
}

// POST /admin/notifications
func (nc *NotificationController) CreateMessage(c *gin.Context) {
	var req createMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &models.NotificationMessage{
		Title:        req.Title,
		Body:         req.Body,
		Category:     req.Category,
		Audience:     req.Audience,
		ScheduledFor: req.ScheduledFor,
		CreatedBy:    req.CreatedBy,
	}
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data payload"})
			return
		}
		msg.Data = raw
	}

	if err := nc.Store.Create(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     msg.ID,
		"status": msg.Status,
	})
}

type triggerSendReq struct {
	MessageID string         `json:"message_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data"`
	UserIDs   []string       `json:"user_ids"`
}

// POST /admin/notifications/send
//
// Sends either a stored message by id or an inline notification. Partial
// delivery failure is still a 200; the counts tell the story.
func (nc *NotificationController) TriggerSend(c *gin.Context) {
	var req triggerSendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MessageID != "" {
		result, err := nc.Dispatcher.SendStoredMessage(c.Request.Context(), req.MessageID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_id or title required"})
		return
	}

	result, err := nc.Dispatcher.SendToAudience(c.Request.Context(), req.Title, req.Body, req.Data, req.UserIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /admin/notifications/pending
func (nc *NotificationController) ListPending(c *gin.Context) {
	msgs, err := nc.Store.ListPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// POST /admin/notifications/process
func (nc *NotificationController) ProcessPending(c *gin.Context) {
	processed, err := nc.Dispatcher.ProcessDue(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

// GET /admin/notifications/:id/result
func (nc *NotificationController) GetResult(c *gin.Context) {
	id := c.Param("id")

	if result, err := nc.Results.Get(c.Request.Context(), id); err == nil && result != nil {
		c.JSON(http.StatusOK, result)
		return
	}

	msg, err := nc.Store.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        msg.Status,
		"success_count": msg.SuccessCount,
		"failure_count": msg.FailureCount,
		"sent_at":       msg.SentAt,
	})
}

type toggleReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// POST /user/notifications/toggle
//
// Flips every device of the calling user at once.
func (nc *NotificationController) ToggleNotifications(c *gin.Context) {
	uid := c.GetString("userID")

	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := nc.Registry.SetEnabledForUser(uid, *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}
