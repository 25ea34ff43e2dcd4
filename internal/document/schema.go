package document

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// canonicalSchema describes the exact shape Normalize produces. Imported JSON
// is checked against it only to tell the user what was coerced or dropped;
// it never blocks an import.
const canonicalSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "text": {"type": "string"},
    "bullets": {"type": "array", "items": {"type": "string", "pattern": "\\S"}},
    "show_on": {
      "type": "array",
      "minItems": 1,
      "uniqueItems": true,
      "items": {"type": "string", "enum": ["cv", "resume"]}
    }
  },
  "properties": {
    "name": {"$ref": "#/definitions/text"},
    "contact": {"$ref": "#/definitions/bullets"},
    "links": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"$ref": "#/definitions/text"},
          "url": {"$ref": "#/definitions/text"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "institution": {"$ref": "#/definitions/text"},
          "location": {"$ref": "#/definitions/text"},
          "degree": {"$ref": "#/definitions/text"},
          "gpa": {"$ref": "#/definitions/text"},
          "dates": {"$ref": "#/definitions/text"}
        }
      }
    },
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "category": {"$ref": "#/definitions/text"},
          "bullets": {"$ref": "#/definitions/bullets"},
          "show_on": {"$ref": "#/definitions/show_on"}
        }
      }
    },
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"$ref": "#/definitions/text"},
          "company": {"$ref": "#/definitions/text"},
          "location": {"$ref": "#/definitions/text"},
          "work_type": {"$ref": "#/definitions/text"},
          "start_date": {"$ref": "#/definitions/text"},
          "end_date": {"$ref": "#/definitions/text"},
          "show_on": {"$ref": "#/definitions/show_on"},
          "bullets": {"$ref": "#/definitions/bullets"}
        }
      }
    },
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"$ref": "#/definitions/text"},
          "tools": {"$ref": "#/definitions/text"},
          "date": {"$ref": "#/definitions/text"},
          "link": {"$ref": "#/definitions/text"},
          "show_on": {"$ref": "#/definitions/show_on"},
          "bullets": {"$ref": "#/definitions/bullets"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(canonicalSchema)

// Diagnose lists every place where v deviates from the canonical document
// shape, sorted for stable output. An empty result means Normalize will keep
// v unchanged apart from missing fields.
func Diagnose(v any) ([]string, error) {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(v))
	if err != nil {
		return nil, fmt.Errorf("validating against document schema: %w", err)
	}
	if res.Valid() {
		return []string{}, nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	sort.Strings(msgs)
	return msgs, nil
}
