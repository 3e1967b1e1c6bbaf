package services

import (
	"context"

	"jpkvat/pkg/models"
)

// DeclarationGenerator turns a period's ledger into a certified declaration
// document.
type DeclarationGenerator interface {
	// Generate runs map, validate and serialize for one request. It never
	// returns an error: every failure is reported in the result's error list.
	Generate(ctx context.Context, req *models.GenerationRequest) *models.GenerationResult

	// GenerateBatch processes independent requests in parallel and returns the
	// results in input order.
	GenerateBatch(ctx context.Context, reqs []*models.GenerationRequest) []*models.GenerationResult
}
