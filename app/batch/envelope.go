package batch

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hann12-34/discovr-ingest/app/event"
)

//go:embed envelope.schema.json
var envelopeSchemaJSON string

// Envelope is one batch of scraper output. Only its shape is validated here;
// the records themselves are judged by the pipeline.
type Envelope struct {
	SourceID   string                  `json:"source_id,omitempty"`
	CityHint   string                  `json:"city_hint,omitempty"`
	ScrapedAt  string                  `json:"scraped_at,omitempty"`
	Candidates []event.CandidateRecord `json:"candidates"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func Decode(payload []byte) (*Envelope, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode batch JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(bytes.TrimSpace(payload), &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}

	return &envelope, nil
}

// Records returns the candidates stamped with the batch's source and city
// hint. A batch naming a different source, or holding more than limit
// records (when limit > 0), is refused whole.
func (e *Envelope) Records(source string, limit int) ([]event.CandidateRecord, error) {
	if e.SourceID != "" && e.SourceID != source {
		return nil, fmt.Errorf("batch source_id %q does not match source %q", e.SourceID, source)
	}
	if limit > 0 && len(e.Candidates) > limit {
		return nil, fmt.Errorf("batch has %d candidates, limit for %s is %d", len(e.Candidates), source, limit)
	}

	records := make([]event.CandidateRecord, len(e.Candidates))
	for i, candidate := range e.Candidates {
		if strings.TrimSpace(candidate.SourceID) == "" {
			candidate.SourceID = source
		}
		if strings.TrimSpace(candidate.CityHint) == "" {
			candidate.CityHint = e.CityHint
		}
		records[i] = candidate
	}
	return records, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("envelope.schema.json", strings.NewReader(envelopeSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("envelope.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
