package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenPrefix makes bearer tokens recognizable in support logs without
// revealing anything about the session.
const tokenPrefix = "aqr_"

// RandomTokenGenerator mints opaque bearer tokens for sessions and
// websocket handshakes.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
