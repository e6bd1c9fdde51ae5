package tfidx

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// validateIngestMetadata enforces the one mandatory field ingest requires:
// metadata[docIDKey].
func validateIngestMetadata(metadata map[string]string, docIDKey string) error {
	if err := validation.Validate(metadata[docIDKey], validation.Required); err != nil {
		return rerr.NewValidationError(docIDKey, err.Error())
	}
	return nil
}
