package v1

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// CreativeRequestEventPrefix prefixes every workflow transition event type.
const CreativeRequestEventPrefix = "creative_request."

var (
	schemaOnce   sync.Once
	schemaByName map[string]*gojsonschema.Schema
	schemaErr    error
)

func loadSchemas() {
	schemaByName = make(map[string]*gojsonschema.Schema)
	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		schemaErr = err
		return
	}
	for _, entry := range entries {
		raw, err := schemaFiles.ReadFile("schemas/" + entry.Name())
		if err != nil {
			schemaErr = err
			return
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", entry.Name(), err)
			return
		}
		schemaByName[strings.TrimSuffix(entry.Name(), ".json")] = schema
	}
}

// schemaNameFor maps an event type and version onto an embedded schema file.
func schemaNameFor(eventType string, version int) string {
	if strings.HasPrefix(eventType, CreativeRequestEventPrefix) {
		return fmt.Sprintf("creative_request_transitioned.v%d", version)
	}
	return fmt.Sprintf("%s.v%d", eventType, version)
}

// ValidateData checks an envelope's data against the schema registered for
// its event type and version.
func ValidateData(envelope Envelope) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	name := schemaNameFor(envelope.EventType, envelope.SchemaVersion)
	schema, ok := schemaByName[name]
	if !ok {
		return fmt.Errorf("no schema registered for %s", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(envelope.Data))
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%s: %s", name, strings.Join(details, "; "))
}
