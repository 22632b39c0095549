package statuspageio

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/statusrelay/statusrelay/internal/status"
)

//go:embed components.schema.json
var componentsSchemaJSON []byte

const componentsSchemaURL = "https://statusrelay.dev/schema/components.json"

var componentsSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(componentsSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("statuspageio: invalid embedded schema: %v", err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(componentsSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("statuspageio: adding schema: %v", err))
	}

	sch, err := c.Compile(componentsSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("statuspageio: compiling schema: %v", err))
	}
	return sch
}

// decodeDocument validates body against the components schema and decodes it.
func decodeDocument(body []byte) (*status.Document, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	if err := componentsSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("unexpected document shape: %w", err)
	}

	var doc status.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}
