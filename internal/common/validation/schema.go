// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// deliveryRequestSchema describes the wire shape accepted by the send API.
// Recipient strategy and notification type are closed sets; title/message are
// only required when no template key is supplied.
var deliveryRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":   map[string]interface{}{"type": "string"},
		"message": map[string]interface{}{"type": "string"},
		"type": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{
				"system", "announcement", "event", "registration",
				"resource", "newsletter", "maintenance", "reminder",
			},
		},
		"priority": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"low", "medium", "high", "urgent"},
		},
		"recipientType": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"all", "specific", "role_based", "grade_based"},
		},
		"recipientIds": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"roles": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"grades": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"templateKey":  map[string]interface{}{"type": "string"},
		"templateData": map[string]interface{}{"type": "object"},
		"relatedId":    map[string]interface{}{"type": "string"},
		"relatedType":  map[string]interface{}{"type": "string"},
		"expiresAt":    map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"recipientType"},
	"anyOf": []interface{}{
		map[string]interface{}{"required": []interface{}{"templateKey"}},
		map[string]interface{}{"required": []interface{}{"title", "message", "type"}},
	},
}

// ValidateDeliveryRequest checks a decoded send payload against the schema.
// Returns the individual violation messages on failure.
func ValidateDeliveryRequest(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(deliveryRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %v", errs)
	}

	return nil
}
