package v7m

import (
	"fmt"

	"jpkvat/internal/jpk/contract"
	"jpkvat/pkg/models"
)

// Variant plugs the V7M mapper, validator and serializer into the generator's
// registry.
type Variant struct{}

// Kind implements jpk.Variant.
func (Variant) Kind() models.DocumentKind {
	return Kind()
}

// Map implements jpk.Variant.
func (Variant) Map(req *models.GenerationRequest) (contract.Structure, error) {
	doc, err := Map(req)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate implements jpk.Variant.
func (Variant) Validate(s contract.Structure) contract.Report {
	doc, err := asDocument(s)
	if err != nil {
		var r contract.Report
		r.Error(contract.CodeUnsupportedForm, "", "%v", err)
		return r
	}
	return Validate(doc)
}

// Serialize implements jpk.Variant.
func (Variant) Serialize(s contract.Structure) ([]byte, error) {
	doc, err := asDocument(s)
	if err != nil {
		return nil, err
	}
	return Serialize(doc)
}

func asDocument(s contract.Structure) (*Document, error) {
	doc, ok := s.(*Document)
	if !ok || doc == nil {
		return nil, contract.NewGenerationError("v7m", contract.ErrStructureType, fmt.Sprintf("got %T", s))
	}
	return doc, nil
}
