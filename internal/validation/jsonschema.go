package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// processSchemaJSON is the JSON Schema for the persisted
// ProcessDefinition document. Embedded as a constant to avoid
// filesystem dependencies. position and size are not required on a
// step so that documents written by older schema versions still load;
// the persistence adapter fills in kind-based defaults.
const processSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://procanvas.dev/schemas/process.json",
  "type": "object",
  "required": ["steps"],
  "properties": {
    "steps": {
      "type": "array",
      "items": { "$ref": "#/$defs/step" }
    },
    "additionalAttributes": {
      "type": "object"
    }
  },
  "additionalProperties": false,
  "$defs": {
    "step": {
      "type": "object",
      "required": ["id", "kind"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "ordinal": {
          "type": "integer",
          "minimum": 0
        },
        "name": { "type": "string" },
        "description": { "type": "string" },
        "kind": {
          "type": "string",
          "enum": ["start", "end", "entity", "form", "assessment", "workflow", "action", "decision", "custom"]
        },
        "entityRef": {
          "type": "object",
          "required": ["name"],
          "properties": {
            "name": { "type": "string" },
            "label": { "type": "string" }
          },
          "additionalProperties": false
        },
        "mappedResource": {
          "type": "object",
          "required": ["id", "kind"],
          "properties": {
            "id": { "type": "string" },
            "name": { "type": "string" },
            "kind": {
              "type": "string",
              "enum": ["form", "assessment", "workflow"]
            }
          },
          "additionalProperties": false
        },
        "ruleRef": {
          "type": "object",
          "required": ["id"],
          "properties": {
            "id": { "type": "string" },
            "name": { "type": "string" }
          },
          "additionalProperties": false
        },
        "branches": {
          "type": "array",
          "items": { "$ref": "#/$defs/branch" }
        },
        "scheduleConfig": {
          "type": "object",
          "properties": {
            "frequency": { "type": "string" },
            "enabled": { "type": "boolean" }
          },
          "additionalProperties": false
        },
        "position": { "$ref": "#/$defs/point" },
        "size": {
          "type": "object",
          "required": ["width", "height"],
          "properties": {
            "width": { "type": "number" },
            "height": { "type": "number" }
          },
          "additionalProperties": false
        },
        "connections": {
          "type": "array",
          "items": { "type": "string" }
        }
      },
      "additionalProperties": false
    },
    "branch": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "conditionLabel": { "type": "string" },
        "conditionValue": {
          "type": ["string", "boolean", "null"]
        },
        "nextStepId": {
          "type": ["string", "null"]
        }
      },
      "additionalProperties": false
    },
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      },
      "additionalProperties": false
    }
  }
}`

// DocumentValidator validates raw persisted documents against the
// process JSON Schema (Draft 2020-12) before they are decoded.
// It is safe for concurrent use.
type DocumentValidator struct {
	processSchema *jsonschema.Schema
}

// NewDocumentValidator creates a DocumentValidator with the process
// schema pre-compiled.
func NewDocumentValidator() (*DocumentValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(processSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal process schema: %w", err)
	}
	if err := c.AddResource("https://procanvas.dev/schemas/process.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add process schema resource: %w", err)
	}

	compiled, err := c.Compile("https://procanvas.dev/schemas/process.json")
	if err != nil {
		return nil, fmt.Errorf("compile process schema: %w", err)
	}

	return &DocumentValidator{processSchema: compiled}, nil
}

// ValidateRaw validates a raw JSON document against the process schema
// and rejects duplicate step ids, which JSON Schema cannot express.
func (v *DocumentValidator) ValidateRaw(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "document is not valid JSON").WithCause(err)
	}

	if err := v.processSchema.Validate(doc); err != nil {
		return toDesignError(err)
	}

	var def schema.ProcessDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to decode document").WithCause(err)
	}
	return checkDuplicateIDs(&def)
}

// ValidateDefinition validates an already-decoded definition by
// round-tripping it through JSON (the jsonschema library requires
// json.Number values).
func (v *DocumentValidator) ValidateDefinition(def *schema.ProcessDefinition) error {
	if def == nil {
		return schema.NewError(schema.ErrCodeValidation, "process definition is nil")
	}

	b, err := json.Marshal(def)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize process definition").WithCause(err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize process definition").WithCause(err)
	}

	if err := v.processSchema.Validate(doc); err != nil {
		return toDesignError(err)
	}
	return checkDuplicateIDs(def)
}

func checkDuplicateIDs(def *schema.ProcessDefinition) error {
	seen := make(map[string]struct{}, len(def.Steps))
	for _, step := range def.Steps {
		if _, exists := seen[step.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate step id %q", step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

// toDesignError converts a jsonschema.ValidationError into a
// DesignError with per-location violation messages.
func toDesignError(err error) *schema.DesignError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("document validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
