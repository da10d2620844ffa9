package domain

// SatelliteInfo is the fixed instrument metadata carried by dim_satellite.
type SatelliteInfo struct {
	SpatialResolutionM      int
	TemporalResolutionHours int
	Description             string
}

// InstrumentInfo returns the metadata for a known instrument. Unrecognized
// instruments fall back to MODIS-class resolution with an unknown description.
func InstrumentInfo(instrument string) SatelliteInfo {
	switch instrument {
	case "MODIS":
		return SatelliteInfo{
			SpatialResolutionM:      1000,
			TemporalResolutionHours: 12,
			Description:             "Moderate Resolution Imaging Spectroradiometer",
		}
	case "VIIRS":
		return SatelliteInfo{
			SpatialResolutionM:      375,
			TemporalResolutionHours: 6,
			Description:             "Visible Infrared Imaging Radiometer Suite",
		}
	default:
		return SatelliteInfo{
			SpatialResolutionM:      1000,
			TemporalResolutionHours: 12,
			Description:             "Unknown instrument",
		}
	}
}

// SatelliteID is the deterministic composite key for dim_satellite.
func SatelliteID(satellite, instrument string) string {
	return satellite + "_" + instrument
}
