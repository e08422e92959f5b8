// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package validation wraps a singleton go-playground/validator instance.
//
// Field names in errors are taken from json tags so API clients see the
// names they sent:
//
//	type observation struct {
//	    VesselID   string  `json:"vesselId" validate:"vesselid"`
//	    Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&obs); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation
