package api

import (
	"encoding/base64"
	"strings"
)

// extractCredentials resolves the username and shared secret from the two
// transports sync clients use. The explicit X-Auth-User/X-Auth-Key header
// pair always wins; Authorization: Basic is the fallback. A malformed Basic
// header yields empty credentials, which the credential gate rejects as
// unauthorized rather than as a server error.
func extractCredentials(authUser, authKey, authorization string) (username, key string) {
	if authUser != "" || authKey != "" {
		return authUser, authKey
	}

	const prefix = "Basic "
	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return "", ""
	}

	decoded, err := base64.StdEncoding.DecodeString(authorization[len(prefix):])
	if err != nil {
		return "", ""
	}

	username, key, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", ""
	}
	return username, key
}
