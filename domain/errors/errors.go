// Package errors provides the typed errors produced by the SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"strconv"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can describe themselves
// as a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// HostCallError is returned when a host entry point reports a nonzero status.
// Code is passed through untouched; its meaning is defined by the host.
type HostCallError struct {
	Operation string
	Code      uint32
}

func (e *HostCallError) Error() string {
	return fmt.Sprintf("wasi-nn %s failed: error code = %d", e.Operation, e.Code)
}

// ToErrorDetail implements DetailedError.
func (e *HostCallError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("host_call", e.Error()).
		WithCode(e.Operation).
		WithDetails(map[string]any{"status": strconv.FormatUint(uint64(e.Code), 10)})
}

// IsHostCallError reports whether err is a HostCallError for the given
// operation. An empty operation matches any entry point.
func IsHostCallError(err error, operation string) (*HostCallError, bool) {
	var hce *HostCallError
	if !stdErrors.As(err, &hce) {
		return nil, false
	}
	if operation != "" && hce.Operation != operation {
		return nil, false
	}
	return hce, true
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("config", e.Error()).WithCode(e.Field)
}

// MemoryError represents a failure to reserve or access linear memory.
type MemoryError struct {
	Op        string // "alloc", "read" or "write"
	Address   uint32
	Requested int
	Limit     int
}

func (e *MemoryError) Error() string {
	if e.Op == "alloc" {
		return fmt.Sprintf("memory allocation failed: requested %d bytes, limit %d bytes", e.Requested, e.Limit)
	}
	return fmt.Sprintf("memory %s of %d bytes at 0x%x out of range", e.Op, e.Requested, e.Address)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("memory", e.Error()).WithCode(e.Op)
}

// FileError wraps an I/O failure while reading model or image files.
type FileError struct {
	Err  error
	Path string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *FileError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("io", e.Error()).WithCode(e.Path)
}
