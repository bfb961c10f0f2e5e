// Package server provides the PhiGate Gin-based HTTP surface:
// auto-routing, explicit-model passthrough, telemetry and the Web UI.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taavik/phigate/internal/dispatch"
	"github.com/taavik/phigate/internal/routing"
	"github.com/taavik/phigate/internal/telemetry"
	"go.uber.org/zap"
)

// dispatchBackend is the fixed serving-stack label reported in /route
// responses.
const dispatchBackend = "trtllm-serve"

// Dependencies are injected once at startup, before route registration.
var (
	registry  *routing.Registry
	forwarder *dispatch.Forwarder
	collector *telemetry.Collector
	log       = zap.NewNop()
)

// SetLogger replaces the package logger; call before registering routes.
func SetLogger(l *zap.Logger) {
	if l != nil {
		log = l
	}
}

// SetRegistry stores the model registry used for classification and
// resolution.
func SetRegistry(r *routing.Registry) {
	registry = r
	forwarder = dispatch.NewForwarder(r, log)
}

// SetCollector stores the process-wide telemetry collector. The collector
// owns the CPU delta baseline, so there must be exactly one.
func SetCollector(c *telemetry.Collector) {
	collector = c
}

// RegisterRoutes wires up the gateway surface on the given engine.
func RegisterRoutes(r *gin.Engine) {
	// ── Health ────────────────────────────────────────────────────────────────
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/healthz", health)
	r.GET("/health", health)

	// ── Model catalog ─────────────────────────────────────────────────────────
	r.GET("/v1/models", handleModels)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	r.GET("/telemetry/snapshot", handleTelemetrySnapshot)
	r.GET("/telemetry/history", JWTMiddleware(), handleTelemetryHistory)

	// ── Admin login ───────────────────────────────────────────────────────────
	r.POST("/api/login", handleLogin)

	// ── Dispatch ──────────────────────────────────────────────────────────────
	r.POST("/route", handleRoute)
	r.POST("/v1/chat/completions", handlePassthrough)
	r.POST("/v1/completions", handlePassthrough)

	// ── Static UI ─────────────────────────────────────────────────────────────
	RegisterStaticFiles(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}

// handleModels returns the fixed four-entry catalog: both canonical ids
// (owned by the vendor) and both aliases (owned by the gateway).
func handleModels(c *gin.Context) {
	entry := func(id, ownedBy string) gin.H {
		return gin.H{"id": id, "object": "model", "owned_by": ownedBy}
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data": []gin.H{
			entry(registry.Reasoning.ID, "nvidia"),
			entry(registry.Reasoning.Alias, "local"),
			entry(registry.Multimodal.ID, "nvidia"),
			entry(registry.Multimodal.Alias, "local"),
		},
	})
}

// snapshotResponse wraps a telemetry sample with the envelope fields the
// monitoring UI expects.
type snapshotResponse struct {
	OK     bool   `json:"ok"`
	Source string `json:"source"`
	telemetry.Sample
	AuthMode string `json:"auth_mode"`
}

func handleTelemetrySnapshot(c *gin.Context) {
	sample := collector.Sample()

	if err := SaveTelemetry(sample); err != nil {
		// History is best-effort; the live snapshot is still served.
		log.Warn("persisting telemetry snapshot failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, snapshotResponse{
		OK:       true,
		Source:   "local_system",
		Sample:   sample,
		AuthMode: "local_only",
	})
}

func handleTelemetryHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := RecentTelemetry(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// handleLogin accepts username + password and returns a signed JWT.
func handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if !checkAdminPassword(body.Username, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := GenerateJWT(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": 86400, // seconds
		"type":       "Bearer",
	})
}

// routeRequest is the body of POST /route.
type routeRequest struct {
	Text      string `json:"text"`
	HasImage  bool   `json:"has_image"`
	ImageURL  string `json:"image_url"`
	ImagePath string `json:"image_path"`
}

// handleRoute classifies free text onto one of the two models, invokes the
// chosen backend and returns the decision together with the invocation
// outcome. Backend failures are reported inside the 200 envelope as
// worker_status, never as an HTTP error.
func handleRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	// Any image reference counts as image presence for classification.
	hasImage := req.HasImage || req.ImageURL != "" || req.ImagePath != ""

	decision := registry.Classify(text, hasImage)
	log.Info("route decision",
		zap.String("model", decision.Target.ID),
		zap.Float64("confidence", decision.Confidence),
		zap.String("source", decision.Source))

	result := forwarder.Invoke(decision.Target, text, req.ImageURL, req.ImagePath)

	var workerStatus string
	var workerResponse gin.H
	if result.OK {
		workerStatus = "ok"
		workerResponse = gin.H{"details": gin.H{
			"target_model": decision.Target.ID,
			"target_alias": decision.Target.Alias,
			"result": gin.H{
				"text":           result.Text,
				"used_precision": "runtime",
				"raw":            result.Raw,
			},
		}}
	} else {
		workerStatus = fmt.Sprintf("error: %s", result.Err)
		workerResponse = gin.H{"details": gin.H{"error": result.Err}}
	}

	c.JSON(http.StatusOK, gin.H{
		"model":            decision.Target.ID,
		"confidence":       decision.Confidence,
		"source":           decision.Source,
		"probabilities":    decision.Probabilities,
		"top_k_models":     decision.TopModels,
		"dispatch_target":  decision.Target.Alias,
		"dispatch_backend": dispatchBackend,
		"worker_invoked":   true,
		"worker_status":    workerStatus,
		"worker_response":  workerResponse,
	})
}

// handlePassthrough relays an explicit-model request to its backend without
// reinterpreting the payload. The body is forwarded byte-for-byte; the
// upstream status, content type and body are relayed verbatim, including
// upstream HTTP errors.
func handlePassthrough(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	var probe struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if probe.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must include model"})
		return
	}

	target, ok := registry.Resolve(probe.Model)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown model. Use one of: " + strings.Join(registry.Accepted(), ", "),
		})
		return
	}

	start := time.Now()
	result, err := forwarder.Relay(
		target.Backend,
		c.Request.URL.Path,
		c.Request.Method,
		body,
		c.GetHeader("Authorization"),
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": fmt.Sprintf("Upstream failure: %v", err),
		})
		return
	}

	log.Info("passthrough relay",
		zap.String("model", probe.Model),
		zap.Int("status", result.Status),
		zap.Duration("elapsed", time.Since(start)))

	c.Data(result.Status, result.ContentType, result.Body)
}
