package constants

import "strings"

// Strategy is the text-extraction method requested by the caller.
type Strategy string

const (
	StrategyLocal    Strategy = "local"
	StrategyExternal Strategy = "external"
)

// Present marks an open-ended date range ("2020 - today").
const Present = "present"

// ParseStrategy accepts the CLI/env spelling of a strategy. Empty input is valid and
// means "use the configured default".
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "local", "pdf", "text":
		return StrategyLocal, true
	case "external", "ocr", "remote":
		return StrategyExternal, true
	default:
		return "", false
	}
}
