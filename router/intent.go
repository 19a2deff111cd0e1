package router

import "strings"

var plottingKeywords = []string{"forecast", "plot", "graph", "predict", "project", "trend"}

// HasPlottingIntent reports whether the query asks for a visual or
// time-series forecast rather than a text answer. Total over all strings.
func HasPlottingIntent(query string) bool {
	lowered := strings.ToLower(query)
	for _, keyword := range plottingKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
