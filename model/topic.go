package model

import "regexp"

// segment matches [\w\-/:]+, the character class the spec allows in each
// topic segment.
const segment = `[\w\-/:]+`

var (
	executeTopicRe = regexp.MustCompile(`^` + segment + `\.execute\.` + segment + `$`)
	successTopicRe = regexp.MustCompile(`^` + segment + `\.success\.` + segment + `$`)
	failureTopicRe = regexp.MustCompile(`^` + segment + `\.failure\.` + segment + `$`)
	genericTopicRe = regexp.MustCompile(`^` + segment + `\.(success|failure|execute)\.` + segment + `$`)
)

// IsExecuteTopic reports whether topic has the form <ns>.execute.<action>.
func IsExecuteTopic(topic string) bool { return executeTopicRe.MatchString(topic) }

// IsSuccessTopic reports whether topic has the form <ns>.success.<action>.
func IsSuccessTopic(topic string) bool { return successTopicRe.MatchString(topic) }

// IsFailureTopic reports whether topic has the form <ns>.failure.<action>.
func IsFailureTopic(topic string) bool { return failureTopicRe.MatchString(topic) }

// IsClassifiedTopic reports whether topic matches the generic
// <ns>.(success|failure|execute).<action> discipline.
func IsClassifiedTopic(topic string) bool { return genericTopicRe.MatchString(topic) }

// ClassifyTopic extracts the outcome a response topic represents. ok is
// false for execute topics (outbound only, never classified) and for
// topics that don't match the discipline at all.
func ClassifyTopic(topic string) (outcome Outcome, ok bool) {
	m := genericTopicRe.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	switch m[1] {
	case "success":
		return OutcomeSuccess, true
	case "failure":
		return OutcomeFailure, true
	default:
		// "execute" classifies but is not an outcome; callers must check
		// IsClassifiedTopic first if they need to distinguish this case.
		return "", false
	}
}
