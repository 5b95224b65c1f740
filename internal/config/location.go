package config

import "time"

// LocationConfig points the geocoding proxy at a Nominatim instance.
type LocationConfig struct {
	NominatimURL string
	UserAgent    string
	Timeout      time.Duration
}

func LoadLocationConfig(appName string) LocationConfig {
	return LocationConfig{
		NominatimURL: envStr("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		UserAgent:    envStr("NOMINATIM_USER_AGENT", appName+"/1.0"),
		Timeout:      envDur("NOMINATIM_TIMEOUT", 10*time.Second),
	}
}
