package domain

import (
	"strconv"
	"strings"
)

// ConfidenceClass buckets a raw detection confidence value.
type ConfidenceClass string

const (
	ConfidenceHigh    ConfidenceClass = "HIGH"
	ConfidenceNominal ConfidenceClass = "NOMINAL"
	ConfidenceLow     ConfidenceClass = "LOW"
	ConfidenceUnknown ConfidenceClass = "UNKNOWN"
)

// ClassifyConfidence maps a raw confidence value to its class using
// instrument-specific rules. The same (raw, instrument) pair always yields
// the same class.
func ClassifyConfidence(raw, instrument string) ConfidenceClass {
	switch instrument {
	case "MODIS":
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return ConfidenceLow
		}
		switch {
		case v >= 80:
			return ConfidenceHigh
		case v >= 30:
			return ConfidenceNominal
		default:
			return ConfidenceLow
		}
	case "VIIRS":
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "h", "high":
			return ConfidenceHigh
		case "n", "nominal":
			return ConfidenceNominal
		default:
			return ConfidenceLow
		}
	default:
		return ConfidenceUnknown
	}
}

// ConfidenceNumeric projects a raw confidence onto the 0-100 scale.
// VIIRS categories map to fixed midpoints (h=85, n=50, else 15).
func ConfidenceNumeric(raw, instrument string) int {
	switch instrument {
	case "MODIS":
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0
		}
		return v
	case "VIIRS":
		switch ClassifyConfidence(raw, instrument) {
		case ConfidenceHigh:
			return 85
		case ConfidenceNominal:
			return 50
		default:
			return 15
		}
	default:
		return 0
	}
}

// ConfidenceScore projects a raw confidence onto a 0-1 score.
func ConfidenceScore(raw, instrument string) float64 {
	switch instrument {
	case "MODIS":
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0
		}
		return v / 100.0
	case "VIIRS":
		return float64(ConfidenceNumeric(raw, instrument)) / 100.0
	default:
		return 0
	}
}

// ConfidenceDescription describes the raw confidence format of an instrument.
func ConfidenceDescription(instrument string) string {
	switch instrument {
	case "MODIS":
		return "MODIS confidence percentage (0-100)"
	case "VIIRS":
		return "VIIRS confidence category (low/nominal/high)"
	default:
		return "Unknown confidence format"
	}
}
