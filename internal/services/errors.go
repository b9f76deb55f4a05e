package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMetadataExtraction = errors.New("metadata extraction failure")
	ErrInvalidDate        = errors.New("invalid date")
	ErrConfigParse        = errors.New("config parse error")
	ErrCollision          = errors.New("destination collision")
	ErrTransferIntegrity  = errors.New("transfer integrity error")
	ErrExternalTool       = errors.New("external tool error")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
	ErrTimeout            = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome maps a per-file error to the short label recorded in reports and the
// run ledger.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransferIntegrity):
		return "integrity"
	case errors.Is(err, ErrMetadataExtraction), errors.Is(err, ErrExternalTool), errors.Is(err, ErrTimeout):
		return "metadata"
	case errors.Is(err, ErrInvalidDate):
		return "invalid-date"
	case errors.Is(err, ErrCollision):
		return "collision"
	case errors.Is(err, ErrConfigParse), errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "config"
	case errors.Is(err, ErrNotFound):
		return "missing"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "footage failure"
	}
	return strings.Join(parts, ": ")
}
