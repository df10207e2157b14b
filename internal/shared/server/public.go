package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/server/respond"
)

type publicConfig struct {
	StripePublishableKey string `json:"stripePublishableKey"`
	FormsURL             string `json:"formsUrl"`
	SupportPhone         string `json:"supportPhone"`
}

// registerPublicConfig exposes the non-secret settings the browser needs.
func registerPublicConfig(rg *gin.RouterGroup, cfg config.Config) {
	body := publicConfig{
		StripePublishableKey: cfg.StripePublishableKey,
		FormsURL:             cfg.FormsURL,
		SupportPhone:         cfg.SupportPhone,
	}
	rg.GET("/config/public", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, body)
	})
}
