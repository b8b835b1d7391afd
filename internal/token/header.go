package token

import "strings"

// ExtractFromAuthHeader returns the token from a header of the exact form
// "Bearer <token>". Any other shape yields ok=false.
func ExtractFromAuthHeader(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != TokenType || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthHeader formats an access token for the Authorization header.
func AuthHeader(accessToken string) string {
	return TokenType + " " + accessToken
}
