package server

import (
	"github.com/roach88/qrelax/internal/compiler"
	"github.com/roach88/qrelax/internal/engine"
)

// RepairRequest is the body of POST /v1/repair.
type RepairRequest struct {
	// Prefixes extend the rdf, rdfs and xsd defaults.
	Prefixes map[string]string `json:"prefixes,omitempty"`
	compiler.QuerySpec

	// K is the number of results wanted. Zero uses the server default.
	K int `json:"k,omitempty"`

	// Strategy overrides the configured strategy when set.
	Strategy string `json:"strategy,omitempty"`
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Prefixes map[string]string `json:"prefixes,omitempty"`
	compiler.QuerySpec
}

// AnalyzeResponse lists the failure explanation of a query.
type AnalyzeResponse struct {
	RequestID  string             `json:"request_id"`
	Query      engine.QueryView   `json:"query"`
	MFS        []engine.QueryView `json:"mfs"`
	XSS        []engine.QueryView `json:"xss"`
	RoundTrips int64              `json:"round_trips"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Strategy string `json:"strategy"`
	Version  string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code"`

	// Field names the offending request field, when known.
	Field string `json:"field,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidQuery    = "INVALID_QUERY"
	CodeInvalidStrategy = "INVALID_STRATEGY"
	CodeTimeout         = "TIMEOUT"
	CodeRepairFailed    = "REPAIR_FAILED"
)
