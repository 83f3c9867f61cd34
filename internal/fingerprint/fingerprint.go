// Package fingerprint derives stable content identifiers used for caching
// and duplicate-content detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/veridict/veridict/internal/model"
)

// significantTokenLen filters out short stop-word-like tokens
const significantTokenLen = 4

// partialTokenLimit caps how many significant tokens feed the partial hash
const partialTokenLimit = 20

// New computes the fingerprint of a piece of text. It is pure and
// deterministic: cosmetic whitespace and casing differences collapse to
// the same full hash, and the partial hash matches across small edits
// that leave the leading significant tokens intact.
func New(text string) model.ContentFingerprint {
	normalized := Normalize(text)
	tokens := strings.Fields(normalized)

	full := sha256.Sum256([]byte(normalized))

	significant := make([]string, 0, partialTokenLimit)
	for _, tok := range tokens {
		if len(tok) < significantTokenLen {
			continue
		}
		significant = append(significant, tok)
		if len(significant) == partialTokenLimit {
			break
		}
	}
	partial := sha256.Sum256([]byte(strings.Join(significant, " ")))

	return model.ContentFingerprint{
		FullHash:    hex.EncodeToString(full[:]),
		PartialHash: hex.EncodeToString(partial[:]),
		TokenCount:  len(tokens),
	}
}

// Normalize lowercases text and collapses whitespace runs to single spaces
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// SignificantTokens returns the tokens that feed the partial hash. The
// source tracker uses them to build duplicate-content search queries.
func SignificantTokens(text string) []string {
	var out []string
	for _, tok := range strings.Fields(Normalize(text)) {
		if len(tok) < significantTokenLen {
			continue
		}
		out = append(out, tok)
		if len(out) == partialTokenLimit {
			break
		}
	}
	return out
}
