package shortlink

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Alphabet is the fixed base-62 digit set: decimal digits, then lowercase,
// then uppercase letters. It is shared by the encoder and the decoder and
// must never change once codes have been persisted.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var index62 = buildIndex()

func buildIndex() map[byte]int64 {
	m := make(map[byte]int64, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		m[Alphabet[i]] = int64(i)
	}
	return m
}

// ErrNegativeInput is returned by EncodeBase62 for a negative id. Callers are
// expected to never pass one; this is a contract check, not a runtime
// condition.
var ErrNegativeInput = errors.New("encode base62: negative input")

// EncodeBase62 renders a non-negative integer in base 62. Zero encodes to the
// first alphabet character.
func EncodeBase62(n int64) (string, error) {
	if n < 0 {
		return "", ErrNegativeInput
	}
	if n == 0 {
		return string(Alphabet[0]), nil
	}
	var buf [11]byte // enough for any int64 in base 62
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:]), nil
}

// DecodeBase62 interprets s as a base-62 number. It reports false for an
// empty string, any character outside the alphabet, or a value that would
// overflow int64.
func DecodeBase62(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		d, ok := index62[s[i]]
		if !ok {
			return 0, false
		}
		if n > (math.MaxInt64-d)/62 {
			return 0, false
		}
		n = n*62 + d
	}
	return n, true
}

// DecodeURLSafeB64Digits pads s to a multiple of four characters,
// base64url-decodes it, drops invalid UTF-8 sequences, and parses the ASCII
// digits found in the decoded text as an integer. Digits scattered through
// the text are concatenated. Reports false when decoding fails or no digit
// appears.
func DecodeURLSafeB64Digits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	padded := s + strings.Repeat("=", (4-len(s)%4)%4)
	raw, err := base64.URLEncoding.DecodeString(padded)
	if err != nil {
		return 0, false
	}
	txt := strings.ToValidUTF8(string(raw), "")
	var digits strings.Builder
	for i := 0; i < len(txt); i++ {
		if txt[i] >= '0' && txt[i] <= '9' {
			digits.WriteByte(txt[i])
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
