package services

import (
	"regexp"
	"strconv"

	"github.com/yourusername/cs2-intel-backend/internal/models"
)

// steam64Base converts a Steam3 account id into the Steam64 space:
// steam64 = base + accountId.
const steam64Base uint64 = 76561197960265728

// steam3Pattern matches the [U:1:XXXXX] game account id format.
var steam3Pattern = regexp.MustCompile(`\[U:1:(\d+)\]`)

// Steam3ToSteam64 converts a Steam3 id ([U:1:XXXXX]) to a Steam64 id.
// Returns ok=false when the input does not match the format.
func Steam3ToSteam64(steam3ID string) (string, bool) {
	match := steam3Pattern.FindStringSubmatch(steam3ID)
	if match == nil {
		return "", false
	}

	accountID, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return "", false
	}

	return strconv.FormatUint(steam64Base+accountID, 10), true
}

// ResolvePlayerIdentity derives a member's Steam64 id. A connected Steam
// account is authoritative when present; otherwise the Steam3 game account
// id is converted. Pure function, no I/O; ok=false means the member has no
// linkable identity and the caller decides what that means.
func ResolvePlayerIdentity(member models.RosterMember) (string, bool) {
	for _, acc := range member.ConnectedAccounts {
		if acc.Provider == "STEAM" && acc.ID != "" {
			return acc.ID, true
		}
	}

	return Steam3ToSteam64(member.GameAccountID)
}
