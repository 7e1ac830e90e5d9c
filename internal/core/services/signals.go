package services

import "strings"

// extractSignals derives profile trait observations from a user message.
// Traits are last-write-wins, so a signal only appears when the message
// actually carries one.
func extractSignals(text string) map[string]string {
	lower := strings.ToLower(text)
	deltas := make(map[string]string)

	if topic := classifyTopic(lower); topic != "" {
		deltas["primary_topic"] = topic
	}

	switch {
	case containsAny(lower, "forecast", "optimization", "optimize", "regression", "variance"):
		deltas["expertise"] = "advanced"
	case containsAny(lower, "what is", "explain", "help me understand"):
		deltas["expertise"] = "beginner"
	}

	if containsAny(lower, "data", "analysis", "analytics") {
		deltas["data_interest"] = "high"
	}

	return deltas
}

// classifyTopic buckets a message into a business topic
func classifyTopic(lower string) string {
	switch {
	case containsAny(lower, "inventory", "stock", "quantity"):
		return "inventory"
	case containsAny(lower, "quality", "strength", "testing"):
		return "quality"
	case containsAny(lower, "optimize", "improve", "reduce cost"):
		return "optimization"
	case containsAny(lower, "predict", "forecast", "trend"):
		return "analytics"
	}
	return ""
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
