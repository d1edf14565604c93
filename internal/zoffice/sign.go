package zoffice

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// neutralBase lets Sign accept both absolute URLs and bare path+query
// strings; only path and query enter the signature.
var neutralBase = &url.URL{Scheme: "http", Host: "placeholder"}

// Sign computes the HMAC-SHA256 signature the co-editing server verifies.
// The signed message is the escaped path, plus "?" and the raw query only
// when a query is present. The result is 64 lowercase hex characters; the
// left-pad guards against truncation if the digest encoding ever changes.
func Sign(rawURL, secret string) (string, error) {
	u, err := neutralBase.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("sign: parse url: %w", err)
	}

	message := u.EscapedPath()
	if u.RawQuery != "" {
		message += "?" + u.RawQuery
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	sig := hex.EncodeToString(mac.Sum(nil))
	if len(sig) < 64 {
		sig = strings.Repeat("0", 64-len(sig)) + sig
	}
	return sig, nil
}
