package weather

import "fmt"

// AQIFromPM25 converts a PM2.5 concentration in μg/m³ to the US EPA
// air quality index using the standard piecewise breakpoints.
// Interpolated values are truncated toward zero.
func AQIFromPM25(pm25 float64) int {
	switch {
	case pm25 <= 12.0:
		return int((pm25 / 12.0) * 50)
	case pm25 <= 35.4:
		return int(((pm25-12.1)/(35.4-12.1))*(100-51) + 51)
	case pm25 <= 55.4:
		return int(((pm25-35.5)/(55.4-35.5))*(150-101) + 101)
	case pm25 <= 150.4:
		return int(((pm25-55.5)/(150.4-55.5))*(200-151) + 151)
	case pm25 <= 250.4:
		return int(((pm25-150.5)/(250.4-150.5))*(300-201) + 201)
	case pm25 <= 350.4:
		return int(((pm25-250.5)/(350.4-250.5))*(400-301) + 301)
	case pm25 <= 500.4:
		return int(((pm25-350.5)/(500.4-350.5))*(500-401) + 401)
	default:
		return 500
	}
}

// AQIStatus is the coarse label used inline in assistant replies.
func AQIStatus(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	default:
		return "Poor"
	}
}

// HealthRecommendations returns the advice lines for an AQI band.
func HealthRecommendations(aqi int) []string {
	switch {
	case aqi <= 50:
		return []string{
			"Air quality is good - suitable for outdoor activities",
			"No health impacts expected for the general population",
		}
	case aqi <= 100:
		return []string{
			"Air quality is moderate - acceptable for most people",
			"Sensitive individuals may experience minor breathing issues",
		}
	case aqi <= 150:
		return []string{
			"Air quality is unhealthy for sensitive groups",
			"Children, elderly, and people with heart/lung disease should limit outdoor activities",
			"Consider wearing a mask if you're sensitive to pollution",
		}
	case aqi <= 200:
		return []string{
			"Air quality is unhealthy - everyone may experience effects",
			"Sensitive groups should avoid outdoor activities",
			"General population should limit prolonged outdoor exertion",
		}
	case aqi <= 300:
		return []string{
			"Air quality is very unhealthy",
			"Everyone should avoid outdoor activities",
			"Stay indoors with windows closed if possible",
		}
	default:
		return []string{
			"Air quality is hazardous",
			"Everyone should stay indoors",
			"Avoid all outdoor activities",
			"Consider using air purifiers indoors",
		}
	}
}

func aqiBand(aqi int) (status, icon string) {
	switch {
	case aqi <= 50:
		return "Good", "🟢"
	case aqi <= 100:
		return "Moderate", "🟡"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups", "🟠"
	case aqi <= 200:
		return "Unhealthy", "🔴"
	case aqi <= 300:
		return "Very Unhealthy", "🟣"
	default:
		return "Hazardous", "🟤"
	}
}

// Summary renders a short human readable report for the reading.
func (a *AirQuality) Summary() string {
	if a == nil || a.AQI == 0 {
		return "Air quality data not available"
	}
	status, icon := aqiBand(a.AQI)
	s := fmt.Sprintf("%s Air Quality Index: %d (%s)", icon, a.AQI, status)
	if a.PM25 > 0 {
		s += fmt.Sprintf("\nPM2.5: %.1f μg/m³", a.PM25)
	}
	if a.PM10 > 0 {
		s += fmt.Sprintf("\nPM10: %.1f μg/m³", a.PM10)
	}
	return s
}
