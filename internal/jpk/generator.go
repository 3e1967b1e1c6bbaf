// Package jpk sequences declaration generation: map, validate, serialize.
//
// Each supported document kind is a Variant registered on the Generator. The
// Generator is the only place that turns mapper failures and panics into
// diagnostics; variants report business-rule findings as data and never
// decide whether a document is released.
package jpk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jpkvat/internal/jpk/contract"
	"jpkvat/internal/jpk/v7m"
	"jpkvat/internal/logger"
	"jpkvat/pkg/models"
	"jpkvat/pkg/services"
)

// DefaultWorkers is the batch worker count when none is configured.
const DefaultWorkers = 12

// ErrVariantPanic marks a recovered panic inside a variant.
var ErrVariantPanic = errors.New("variant panicked")

// Variant is one document kind and schema version: an independent
// mapper/validator/serializer triple over the canonical ledger model.
type Variant interface {
	Kind() models.DocumentKind
	Map(req *models.GenerationRequest) (contract.Structure, error)
	Validate(s contract.Structure) contract.Report
	Serialize(s contract.Structure) ([]byte, error)
}

// Generator implements services.DeclarationGenerator over a set of variants.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	variants map[models.DocumentKind]Variant
	now      func() time.Time
	newID    func() string
	workers  int
	log      zerolog.Logger
}

var _ services.DeclarationGenerator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithVariant registers v, replacing any variant of the same kind.
func WithVariant(v Variant) Option {
	return func(g *Generator) {
		g.variants[normalizeKind(v.Kind())] = v
	}
}

// WithClock sets the clock used to stamp requests that carry no generation
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDFunc sets the document id generator.
func WithIDFunc(f func() string) Option {
	return func(g *Generator) { g.newID = f }
}

// WithWorkers sets the batch worker count. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// NewGenerator returns a generator with the JPK_V7M (2) variant registered.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		variants: make(map[models.DocumentKind]Variant),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		workers:  DefaultWorkers,
		log:      logger.WithComponent("jpk"),
	}
	WithVariant(v7m.Variant{})(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Kinds lists the registered document kinds, sorted.
func (g *Generator) Kinds() []models.DocumentKind {
	out := make([]models.DocumentKind, 0, len(g.variants))
	for k := range g.variants {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Generate runs one request through map, validate and serialize. It never
// returns nil and never panics: contract violations and internal failures come
// back as a single error diagnostic, validation failures as the full list.
func (g *Generator) Generate(ctx context.Context, req *models.GenerationRequest) (result *models.GenerationResult) {
	result = &models.GenerationResult{
		Errors:      []models.Diagnostic{},
		Warnings:    []models.Diagnostic{},
		GeneratedAt: g.now().UTC().Truncate(time.Second),
	}
	log := g.log

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: %v", ErrVariantPanic, p)
			log.Error().Err(err).Msg("Generation panicked")
			fail(result, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		fail(result, err)
		return result
	}
	if req == nil {
		fail(result, contract.NewGenerationError("Generate", contract.ErrUnsupportedForm, "request is nil"))
		return result
	}

	log = log.With().
		Str("kind", req.Kind.String()).
		Str("period", req.Period).
		Str("company", req.Company.TaxID).
		Logger()

	variant, ok := g.variants[normalizeKind(req.Kind)]
	if !ok {
		err := contract.NewGenerationError("Generate", contract.ErrUnsupportedForm,
			fmt.Sprintf("%s is not registered (supported: %s)", req.Kind, g.kindList()))
		log.Warn().Err(err).Msg("Unsupported document kind")
		fail(result, err)
		return result
	}

	stamped := *req
	if stamped.Generator.GeneratedAt.IsZero() {
		stamped.Generator.GeneratedAt = result.GeneratedAt
	}
	result.GeneratedAt = stamped.Generator.GeneratedAt.UTC().Truncate(time.Second)

	log.Debug().Int("entries", len(stamped.Entries)).Msg("Mapping request")
	structure, err := variant.Map(&stamped)
	if err != nil {
		log.Warn().Err(err).Msg("Request rejected by mapper")
		fail(result, err)
		return result
	}

	report := variant.Validate(structure)
	result.Warnings = append(result.Warnings, report.Warnings...)
	if !report.IsValid() {
		result.Errors = append(result.Errors, report.Errors...)
		log.Info().
			Int("errors", len(report.Errors)).
			Int("warnings", len(report.Warnings)).
			Msg("Declaration failed validation")
		return result
	}

	document, err := variant.Serialize(structure)
	if err != nil {
		log.Error().Err(err).Msg("Serialization failed")
		fail(result, err)
		return result
	}

	sales, purchases := structure.RowCounts()
	result.Success = true
	result.DocumentID = g.newID()
	result.Document = document
	result.ByteSize = len(document)
	result.SalesRows = sales
	result.PurchaseRows = purchases
	result.RowCount = sales + purchases

	log.Info().
		Str("document_id", result.DocumentID).
		Int("rows", result.RowCount).
		Int("bytes", result.ByteSize).
		Int("warnings", len(result.Warnings)).
		Msg("Declaration generated")

	return result
}

// batchJob is one request of a batch and its position in the input.
type batchJob struct {
	Index   int
	Request *models.GenerationRequest
}

// GenerateBatch generates independent requests on a worker pool. Results are
// returned in input order. Requests not started before ctx is done fail with
// the context error.
func (g *Generator) GenerateBatch(ctx context.Context, reqs []*models.GenerationRequest) []*models.GenerationResult {
	jobs := make(chan batchJob, len(reqs))
	results := make([]*models.GenerationResult, len(reqs))

	workers := g.workers
	if workers > len(reqs) {
		workers = len(reqs)
	}

	g.log.Info().Int("requests", len(reqs)).Int("workers", workers).Msg("Starting batch generation")

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				g.log.Debug().
					Int("worker", workerID).
					Int("index", job.Index+1).
					Msg("Worker generating declaration")

				results[job.Index] = g.Generate(ctx, job.Request)
			}
		}(w)
	}

	for i, req := range reqs {
		jobs <- batchJob{Index: i, Request: req}
	}
	close(jobs)

	wg.Wait()

	return results
}

func (g *Generator) kindList() string {
	kinds := g.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

func normalizeKind(k models.DocumentKind) models.DocumentKind {
	return models.DocumentKind{
		Form:    strings.TrimSpace(k.Form),
		Version: strings.TrimSpace(k.Version),
	}
}

// fail turns err into the single error of a failed result.
func fail(result *models.GenerationResult, err error) {
	result.Success = false
	result.DocumentID = ""
	result.Document = nil
	result.ByteSize = 0
	result.RowCount = 0
	result.SalesRows = 0
	result.PurchaseRows = 0
	result.Errors = []models.Diagnostic{{
		Code:     contract.CodeFor(err),
		Message:  err.Error(),
		Severity: models.SeverityError,
	}}
}
