package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jpkvat/pkg/models"
)

var validate = validator.New()

func init() {
	// Report fields by their JSON names so diagnostics match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError lists the envelope fields that failed format checks, keyed
// by namespaced JSON path ("company.tax_office_code").
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+" ("+tag+")")
	}
	return fmt.Sprintf("%v: %s", ErrInvalidRequest, strings.Join(parts, ", "))
}

// Unwrap returns ErrInvalidRequest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// ValidateRequest runs the struct-tag format checks on a request envelope.
// Business rules are left to the declaration validator.
func ValidateRequest(req *models.GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is empty", ErrInvalidRequest)
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Drop the root struct name: "GenerationRequest.company.email".
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// DecodeRequest decodes and format-checks one JSON request.
func DecodeRequest(r io.Reader) (*models.GenerationRequest, error) {
	const op = "DecodeRequest"

	var req models.GenerationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("%s: failed to decode request: %w", op, err)
	}
	if err := ValidateRequest(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &req, nil
}

// LoadRequest reads a JSON request file.
func LoadRequest(path string) (*models.GenerationRequest, error) {
	const op = "LoadRequest"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer f.Close()

	return DecodeRequest(f)
}

// DecodeBatch decodes a JSON array of requests. Every request is
// format-checked; the first failure is reported with its index.
func DecodeBatch(r io.Reader) ([]*models.GenerationRequest, error) {
	const op = "DecodeBatch"

	var reqs []*models.GenerationRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("%s: failed to decode batch: %w", op, err)
	}
	for i, req := range reqs {
		if err := ValidateRequest(req); err != nil {
			return nil, fmt.Errorf("%s: request %d: %w", op, i+1, err)
		}
	}
	return reqs, nil
}

// LoadBatch reads a JSON batch file.
func LoadBatch(path string) ([]*models.GenerationRequest, error) {
	const op = "LoadBatch"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer f.Close()

	return DecodeBatch(f)
}
