// Package webhook serves the Meta webhook endpoints: subscription
// verification, inbound event delivery, and a notification test hook.
package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dauglabs/switchboard/internal/instagram"
	"github.com/dauglabs/switchboard/internal/notify"
	"github.com/dauglabs/switchboard/internal/relay"
)

// EventHandler consumes decoded messaging events. Satisfied by
// relay.Handler.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev relay.Event)
}

// StartOpts holds configuration for the webhook server.
type StartOpts struct {
	Handler     EventHandler
	VerifyToken string
	AppSecret   string // when set, POST bodies must carry a valid signature
	Notifier    notify.Notifier
	Port        int
	Out         io.Writer
}

// Start launches the webhook HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Handler == nil {
		return fmt.Errorf("webhook: handler is required")
	}
	if opts.VerifyToken == "" {
		return fmt.Errorf("webhook: verify token is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Port <= 0 {
		opts.Port = 3000
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Webhook listening at http://localhost:%d/webhook\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// registerRoutes sets up all webhook routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/health", handleHealth())
	router.GET("/webhook", handleVerify(opts.VerifyToken))
	router.POST("/webhook", handleDeliver(opts.Handler, opts.AppSecret))
	router.POST("/test/notify", handleTestNotify(opts.Notifier))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleVerify answers the Meta subscription handshake: echo the
// challenge when the mode and token match, refuse otherwise.
func handleVerify(verifyToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if mode == "subscribe" && token == verifyToken {
			c.String(http.StatusOK, challenge)
			return
		}
		c.Status(http.StatusForbidden)
	}
}

// handleDeliver accepts an event batch, acknowledges immediately, and
// dispatches each messaging event on its own goroutine.
func handleDeliver(handler EventHandler, appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		if appSecret != "" {
			sig := c.GetHeader("X-Hub-Signature-256")
			if !instagram.VerifySignature(appSecret, body, sig) {
				c.Status(http.StatusUnauthorized)
				return
			}
		}

		payload, err := decodePayload(body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		if payload.Object != "instagram" && payload.Object != "page" {
			c.Status(http.StatusNotFound)
			return
		}

		for _, ev := range payload.events() {
			go handler.HandleEvent(context.Background(), ev)
		}
		c.String(http.StatusOK, "EVENT_RECEIVED")
	}
}

// handleTestNotify fires a test message on the configured notification
// backend so operators can confirm wiring without waiting for a buyer.
func handleTestNotify(notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := notifier.Test(c.Request.Context(), "Switchboard test notification"); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}
