package controllers

import (
	"net/http"

	"carbscan-backend/services"

	"github.com/gin-gonic/gin"
)

// GET /user/profile
//
// Returns the verified identity as reported by the identity provider. The
// server keeps no account rows of its own.
func GetProfile(c *gin.Context) {
	v, ok := c.Get("identity")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ident := v.(*services.Identity)

	c.JSON(http.StatusOK, gin.H{
		"id":                ident.ID,
		"email":             ident.Email,
		"first_name":        ident.FirstName,
		"last_name":         ident.LastName,
		"subscription_tier": ident.SubscriptionTier,
	})
}
