package media

import "strings"

// ColorProfile is derived from technical metadata and never stored as ground truth.
type ColorProfile string

const (
	ColorSDR ColorProfile = "SDR"
	ColorLOG ColorProfile = "LOG"
	ColorHDR ColorProfile = "HDR"
)

// ColorInfo carries the stream fields the profile is derived from.
type ColorInfo struct {
	Transfer  string
	Primaries string
	Space     string
	PixFmt    string
}

var (
	hdrTransfers   = []string{"smpte2084", "arib-std-b67"}
	wideGamut      = []string{"bt2020", "rec2020"}
	deepPixFormats = []string{"10le", "12le", "16le", "p010", "p016"}
)

// ClassifyColor tags PQ/HLG transfers as HDR, log transfers or wide-gamut
// and high bit depth footage as LOG, and everything else as SDR.
func ClassifyColor(info ColorInfo) ColorProfile {
	transfer := strings.ToLower(info.Transfer)
	if containsAny(transfer, hdrTransfers) {
		return ColorHDR
	}
	if strings.Contains(transfer, "log") {
		return ColorLOG
	}
	if containsAny(strings.ToLower(info.Primaries), wideGamut) || containsAny(strings.ToLower(info.Space), wideGamut) {
		return ColorLOG
	}
	if containsAny(strings.ToLower(info.PixFmt), deepPixFormats) {
		return ColorLOG
	}
	return ColorSDR
}

// CatalogSuffix is the group_name suffix used by the catalog export.
func (p ColorProfile) CatalogSuffix() string {
	switch p {
	case ColorLOG:
		return "LOG"
	case ColorHDR:
		return "HDR"
	default:
		return "709"
	}
}

func containsAny(value string, needles []string) bool {
	if value == "" {
		return false
	}
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
