package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/shipment_request.json
var shipmentRequestSchema []byte

const shipmentRequestSchemaRef = "https://dispatch.local/schemas/shipment_request.json"

// RequestError lists every problem found in a request body.
type RequestError struct {
	Details []string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request: %d problem(s)", len(e.Details))
}

type RequestValidator struct {
	schema *jsonschema.Schema
}

func NewRequestValidator() (*RequestValidator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(shipmentRequestSchemaRef, bytes.NewReader(shipmentRequestSchema)); err != nil {
		return nil, fmt.Errorf("add request schema: %w", err)
	}
	schema, err := c.Compile(shipmentRequestSchemaRef)
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &RequestValidator{schema: schema}, nil
}

// Validate returns a *RequestError when body is not a valid shipment request.
func (v *RequestValidator) Validate(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &RequestError{Details: []string{"body is not valid JSON: " + err.Error()}}
	}

	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &RequestError{Details: []string{err.Error()}}
	}

	details := leafMessages(verr, nil)
	sort.Strings(details)
	return &RequestError{Details: details}
}

func leafMessages(e *jsonschema.ValidationError, out []string) []string {
	if len(e.Causes) == 0 {
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, loc+": "+e.Message)
	}
	for _, c := range e.Causes {
		out = leafMessages(c, out)
	}
	return out
}
