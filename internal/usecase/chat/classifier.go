package chat

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Signal patterns for answer-depth routing. CLI, log, and protocol matching
// is case-insensitive; the acronym check is deliberately case-sensitive so
// prose like "api" does not count as a technical signal.
var (
	cliRe      = regexp.MustCompile(`\b(docker|kubectl|curl|pip|conda|apt-get|brew)\b`)
	logsRe     = regexp.MustCompile(`\b(traceback|exception|stack trace|error:|warn\[)\b`)
	protocolRe = regexp.MustCompile(`\b(http|https|grpc|tcp|udp|oauth|jwt)\b`)
	acronymRe  = regexp.MustCompile(`\b(RAG|LLM|API|SDK|TLS|SSL|CVE|XSS|CSRF|SQLi|RBAC|IAM)\b`)
)

// Classify scores the question for technical signals and picks a detail
// tier. Pure: same input, same tier.
func Classify(message string) domain.DetailLevel {
	m := strings.TrimSpace(message)
	if m == "" {
		return domain.DetailBasic
	}
	lower := strings.ToLower(m)

	hasCodeBlock := strings.Contains(m, "```")
	hasCLI := cliRe.MatchString(lower)
	hasLogs := logsRe.MatchString(lower)
	hasProtocols := protocolRe.MatchString(lower)
	hasAcronyms := acronymRe.MatchString(m)
	length := len([]rune(m))
	structural := length > 180 || strings.Count(m, "?") >= 2 || strings.Count(m, "\n") >= 3

	score := 0
	if hasCodeBlock {
		score += 2
	}
	if hasCLI {
		score += 2
	}
	if hasLogs {
		score += 2
	}
	if hasProtocols {
		score++
	}
	if hasAcronyms {
		score++
	}
	if structural {
		score++
	}

	if score >= 3 {
		return domain.DetailAdvanced
	}
	if length <= 60 && !(hasCLI || hasLogs || hasProtocols || hasAcronyms || hasCodeBlock) {
		return domain.DetailBasic
	}
	return domain.DetailStandard
}
