package api

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const predictSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string"}
	}
}`

const urlSchema = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"url": {"type": "string", "minLength": 1}
	}
}`

const similarSchema = `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"articles_per_planet": {"type": "integer", "minimum": 1, "maximum": 10}
	}
}`

// mustSchema compiles an embedded request schema at startup. A bad
// schema is a programming error, not a runtime condition.
func mustSchema(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

var (
	predictRequestSchema = mustSchema("predict.json", predictSchema)
	urlRequestSchema     = mustSchema("url.json", urlSchema)
	similarRequestSchema = mustSchema("similar.json", similarSchema)
)
