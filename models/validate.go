package models

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue/cuecontext"
)

//go:embed schemas/input.cue
var inputSchema []byte

// ValidateInputSchema checks a JSON input configuration against the
// embedded schema before it is parsed into typed structs
func ValidateInputSchema(jsonData []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(inputSchema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("failed to compile input schema: %w", err)
	}

	configVal := ctx.CompileBytes(jsonData)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("failed to compile input configuration: %w", err)
	}

	if err := schemaVal.Subsume(configVal); err != nil {
		return &ValidationError{Field: "input configuration", Message: err.Error()}
	}
	return nil
}
