package clientenv

import (
	ua "github.com/mileusna/useragent"
)

// Env describes the client environment a session was created or revoked
// from, as recorded in the session audit log.
type Env struct {
	Browser         string `bson:"browser" json:"browser"`
	Device          string `bson:"device" json:"device"`
	OperatingSystem string `bson:"operatingSystem" json:"operatingSystem"`
}

// Fallback values used when the user agent cannot be classified.
const (
	BrowserOther  = "Other"
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceUnknown = "Unknown"
	OSUnknown     = "Unknown"
)

// Parse classifies a raw User-Agent header. Unrecognized agents degrade to
// the fallback values rather than failing.
func Parse(raw string) Env {
	a := ua.Parse(raw)

	env := Env{
		Browser:         a.Name,
		OperatingSystem: a.OS,
	}
	if env.Browser == "" {
		env.Browser = BrowserOther
	}
	if env.OperatingSystem == "" {
		env.OperatingSystem = OSUnknown
	}

	switch {
	case a.Mobile:
		env.Device = DeviceMobile
	case a.Tablet:
		env.Device = DeviceTablet
	case a.Desktop:
		env.Device = DeviceDesktop
	default:
		env.Device = DeviceUnknown
	}
	return env
}
