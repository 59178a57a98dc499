package ai

import (
	"encoding/json"

	"github.com/qri-io/jsonschema"
)

const analysisSchemaJSON = `{
  "type": "object",
  "required": ["summary", "extractedSkills", "highlights", "score"],
  "properties": {
    "summary": {"type": "string"},
    "extractedSkills": {"type": "array", "items": {"type": "string"}},
    "missingKeywords": {"type": "array", "items": {"type": "string"}},
    "highlights": {"type": "array", "items": {"type": "string"}},
    "score": {"type": "number"}
  }
}`

const keywordsSchemaJSON = `{
  "type": "object",
  "required": ["keywords"],
  "properties": {
    "keywords": {"type": "array", "items": {"type": "string"}}
  }
}`

const comparisonSchemaJSON = `{
  "type": "object",
  "required": ["matchScore", "missingSkills", "recommendations"],
  "properties": {
    "matchScore": {"type": "number"},
    "jdKeywords": {"type": "array", "items": {"type": "string"}},
    "missingSkills": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	AnalysisSchema   = mustSchema(analysisSchemaJSON)
	KeywordsSchema   = mustSchema(keywordsSchemaJSON)
	ComparisonSchema = mustSchema(comparisonSchemaJSON)
)

func mustSchema(src string) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(src), rs); err != nil {
		panic("ai: invalid schema: " + err.Error())
	}
	return rs
}
