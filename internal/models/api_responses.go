// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"outcome": "applied", "vesselId": "366999001"},
//	  "metadata": {"timestamp": "2026-03-02T12:00:00Z", "request_id": "..."}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "INVALID_TRANSITION",
//	    "message": "alert 7f3c... is resolved and cannot be acknowledged"
//	  },
//	  "metadata": {"timestamp": "2026-03-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`

	// Count is set on list responses.
	Count *int `json:"count,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Error codes:
//   - BAD_REQUEST: body could not be decoded
//   - VALIDATION_ERROR: query or body fields out of range
//   - INVALID_REPORT: a position report was rejected by the ingestor
//   - NOT_FOUND: unknown alert, vessel or detector
//   - INVALID_TRANSITION: acknowledge/resolve would move an alert backwards
//   - RATE_LIMITED: too many ingest requests from one client
//   - SERVICE_UNAVAILABLE: an optional component is disabled or not ready
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
