package weather

// DescribeWind converts a wind speed in m/s to the descriptive term
// used in assistant replies.
func DescribeWind(speed float64) string {
	switch {
	case speed < 0.5:
		return "calm"
	case speed < 1.5:
		return "light breeze"
	case speed < 3.3:
		return "gentle breeze"
	case speed < 5.5:
		return "moderate breeze"
	case speed < 7.9:
		return "fresh breeze"
	case speed < 10.7:
		return "strong breeze"
	default:
		return "strong winds"
	}
}

// DescribeRain converts a day's total rainfall in millimetres to a
// descriptive term. No rainfall yields an empty string.
func DescribeRain(total float64) string {
	if total <= 0 {
		return ""
	}
	switch {
	case total < 0.5:
		return "light drizzle"
	case total < 2.5:
		return "light rain"
	case total < 7.5:
		return "moderate rain"
	case total < 15:
		return "heavy rain"
	default:
		return "very heavy rain"
	}
}
