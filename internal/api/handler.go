package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jpkvat/internal/ledger"
	"jpkvat/internal/nip"
	"jpkvat/pkg/models"
	"jpkvat/pkg/services"
)

// maxBatch bounds the number of requests accepted in one batch call.
const maxBatch = 100

// Handler serves the declaration endpoints.
type Handler struct {
	gen   services.DeclarationGenerator
	kinds []string
	log   zerolog.Logger
}

// NewHandler creates a handler over gen. kinds is reported by the health check.
func NewHandler(gen services.DeclarationGenerator, kinds []string, log zerolog.Logger) *Handler {
	return &Handler{gen: gen, kinds: kinds, log: log}
}

// Health reports liveness and the registered document kinds.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"kinds": h.kinds,
	})
}

// Generate runs one request. A successful result is 200, a rejected one 422
// with the full diagnostics. With "Accept: application/xml" a successful
// result is returned as the document itself.
func (h *Handler) Generate(c *gin.Context) {
	var req models.GenerationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result := h.gen.Generate(c.Request.Context(), &req)

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	if wantsXML(c) {
		c.Header("X-Document-ID", result.DocumentID)
		c.Data(http.StatusOK, "application/xml; charset=utf-8", result.Document)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateBatch runs independent requests and returns results in input order.
// The call succeeds even when individual requests are rejected.
func (h *Handler) GenerateBatch(c *gin.Context) {
	var reqs []*models.GenerationRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, NewError("invalid JSON: "+err.Error()))
		return
	}
	if len(reqs) > maxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, NewError("batch exceeds 100 requests"))
		return
	}
	for _, req := range reqs {
		if !validate(c, req) {
			return
		}
	}

	results := h.gen.GenerateBatch(c.Request.Context(), reqs)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	h.log.Info().
		Str("request_id", c.GetString(RequestIDKey)).
		Int("requests", len(reqs)).
		Int("succeeded", succeeded).
		Msg("Batch generated")

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CheckNIP validates a national tax id.
func (h *Handler) CheckNIP(c *gin.Context) {
	raw := c.Param("nip")
	c.JSON(http.StatusOK, gin.H{
		"nip":   nip.Normalize(raw),
		"valid": nip.Valid(raw),
	})
}

// bindAndValidate binds the JSON body and runs the envelope format checks.
// On failure it writes the response and returns false.
func bindAndValidate(c *gin.Context, req *models.GenerationRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, NewError("invalid JSON: "+err.Error()))
		return false
	}
	return validate(c, req)
}

func validate(c *gin.Context, req *models.GenerationRequest) bool {
	err := ledger.ValidateRequest(req)
	if err == nil {
		return true
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, NewValidation(verr.Fields))
		return false
	}
	c.JSON(http.StatusBadRequest, NewError(err.Error()))
	return false
}

func wantsXML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/xml")
}
