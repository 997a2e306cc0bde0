// Package score maps probe measurements to one composite ranking number.
package score

import "math"

// Component weights. They sum to 1.0 so a perfect node scores exactly 100;
// do not change one without rebalancing the others.
const (
	latencyWeight = 0.5
	speedWeight   = 0.3
	successWeight = 0.2
)

// Score is a pure function of the measurement. latencyMS <= 0 means the
// probe produced no usable timing; such nodes cannot be scored at all, not
// even partially, and always get 0.
//
// Component tables:
//
//	latency (ms):  <50→100  <100→95  <200→85  <300→75  <500→60  <1000→40  else→20
//	speed (KB/s):  0→0  >10000→100  >5000→90  >2000→80  >1000→70  >500→60  >100→40  else→20
//	success:       100 or 0
//
// Composite = latency*0.5 + speed*0.3 + success*0.2, rounded to one
// decimal place.
func Score(latencyMS int, speedKBps int, success bool) float64 {
	if latencyMS <= 0 {
		return 0
	}

	ls := latencyScore(latencyMS)
	ss := speedScore(speedKBps)
	var okScore float64
	if success {
		okScore = 100
	}

	total := ls*latencyWeight + ss*speedWeight + okScore*successWeight
	return math.Round(total*10) / 10
}

func latencyScore(ms int) float64 {
	switch {
	case ms < 50:
		return 100
	case ms < 100:
		return 95
	case ms < 200:
		return 85
	case ms < 300:
		return 75
	case ms < 500:
		return 60
	case ms < 1000:
		return 40
	default:
		return 20
	}
}

func speedScore(kbps int) float64 {
	switch {
	case kbps == 0:
		return 0
	case kbps > 10000:
		return 100
	case kbps > 5000:
		return 90
	case kbps > 2000:
		return 80
	case kbps > 1000:
		return 70
	case kbps > 500:
		return 60
	case kbps > 100:
		return 40
	default:
		return 20
	}
}
