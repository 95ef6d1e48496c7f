package controllers

import (
	"net/http"

	"carbscan-backend/services"

	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	Registry *services.DeviceRegistry
}

func NewDeviceController(registry *services.DeviceRegistry) *DeviceController {
	return &DeviceController{Registry: registry}
}

type registerDeviceReq struct {
	Token      string `json:"token" binding:"required"`
	Platform   string `json:"platform" binding:"required,oneof=ios android"`
	DeviceName string `json:"device_name"`
	OSVersion  string `json:"os_version"`
	AppVersion string `json:"app_version"`
	UserID     string `json:"user_id"`
}

// POST /devices/register
func (dc *DeviceController) Register(c *gin.Context) {
	uid := c.GetString("userID")

	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The registration must belong to the verified caller.
	if req.UserID != "" && req.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "user_id does not match token subject"})
		return
	}

	dev, err := dc.Registry.Register(uid, req.Token, req.Platform, services.DeviceMetadata{
		DeviceName: req.DeviceName,
		OSVersion:  req.OSVersion,
		AppVersion: req.AppVersion,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       dev.ID,
		"platform": dev.Platform,
		"enabled":  dev.Enabled,
	})
}

type unregisterDeviceReq struct {
	Token string `json:"token" binding:"required"`
}

// POST /devices/unregister
func (dc *DeviceController) Unregister(c *gin.Context) {
	uid := c.GetString("userID")

	var req unregisterDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dev, err := dc.Registry.GetByToken(req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if dev != nil && dev.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "token belongs to another user"})
		return
	}

	ok, err := dc.Registry.Unregister(req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}
