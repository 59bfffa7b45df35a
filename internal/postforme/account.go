package postforme

import (
	"strings"
)

const accountPrefix = "sa_"

// AccountRef is a parsed social account reference of the form sa_<platform>-<suffix>.
type AccountRef struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
}

func (a AccountRef) String() string { return a.ID }

// ParseAccountRef derives the platform encoded in a social account id.
func ParseAccountRef(id string) (AccountRef, error) {
	rest, ok := strings.CutPrefix(id, accountPrefix)
	if !ok {
		return AccountRef{}, InvalidAccountRefError{Ref: id, Reason: "missing " + accountPrefix + " prefix"}
	}

	platform, suffix, ok := strings.Cut(rest, "-")
	if !ok {
		return AccountRef{}, InvalidAccountRefError{Ref: id, Reason: "missing platform separator"}
	}
	if platform == "" {
		return AccountRef{}, InvalidAccountRefError{Ref: id, Reason: "empty platform"}
	}
	if suffix == "" {
		return AccountRef{}, InvalidAccountRefError{Ref: id, Reason: "empty account suffix"}
	}

	platform = strings.ToLower(platform)
	for _, r := range platform {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return AccountRef{}, InvalidAccountRefError{Ref: id, Reason: "platform contains invalid characters"}
		}
	}

	return AccountRef{ID: id, Platform: Platform(platform)}, nil
}
