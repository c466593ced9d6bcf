package domain

import "strconv"

// TimeCode is a coordinate on the document's native timeline.
// Time codes are real numbers; frames are not assumed to be integral.
type TimeCode float64

// String formats the time code without trailing zeros.
func (t TimeCode) String() string {
	return strconv.FormatFloat(float64(t), 'g', -1, 64)
}

// ParseTimeCode parses a decimal time code.
func ParseTimeCode(s string) (TimeCode, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return TimeCode(f), nil
}

// TimeSample is one (time, value) pair of a time-varying opinion.
type TimeSample struct {
	Time  TimeCode
	Value Value
}
