package steamid

import (
	"regexp"
	"strconv"
	"strings"
)

// Offset of the first individual account in the 64-bit id space.
const base64ID = 76561197960265728

var (
	profileRe = regexp.MustCompile(`steamcommunity\.com/profiles/(\d+)`)
	steam2Re  = regexp.MustCompile(`^STEAM_[0-5]:([01]):(\d+)$`)
	steam3Re  = regexp.MustCompile(`^\[?U:1:(\d+)\]?$`)
)

// ToSteam64 normalizes a steam2 id, steam3 id, profile URL, or plain
// 64-bit id into the 64-bit form. ok is false when the input is not a
// recognizable individual account id.
func ToSteam64(auth string) (string, bool) {
	auth = strings.TrimSpace(auth)
	if auth == "" {
		return "", false
	}

	if m := profileRe.FindStringSubmatch(auth); m != nil {
		auth = m[1]
	}

	if m := steam2Re.FindStringSubmatch(auth); m != nil {
		y, _ := strconv.ParseUint(m[1], 10, 64)
		z, _ := strconv.ParseUint(m[2], 10, 64)
		return strconv.FormatUint(base64ID+z*2+y, 10), true
	}

	if m := steam3Re.FindStringSubmatch(auth); m != nil {
		account, _ := strconv.ParseUint(m[1], 10, 64)
		return strconv.FormatUint(base64ID+account, 10), true
	}

	if id, err := strconv.ParseUint(auth, 10, 64); err == nil && id > base64ID {
		return auth, true
	}

	return "", false
}
