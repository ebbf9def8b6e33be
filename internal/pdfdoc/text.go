// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds compatibility characters (ligatures such as "ﬁ",
// full-width forms) with NFKC and drops control characters other than
// tab and newline.
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case unicode.IsControl(r), r == '\ufffd', r == '\ufeff':
			return -1
		}
		return r
	}, s)
}

var pdfDatePattern = regexp.MustCompile(`^(?:D:)?(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?([Zz+\-])?(\d{2})?'?(\d{2})?'?$`)

// ParseDate converts a PDF date string (D:YYYYMMDDHHmmSSOHH'mm') to RFC 3339.
// Missing components default to their minimum value; a missing offset is UTC.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	m := pdfDatePattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("parsing PDF date %q: unrecognized format", s)
	}
	num := func(v string, def int) int {
		if v == "" {
			return def
		}
		n, _ := strconv.Atoi(v)
		return n
	}
	loc := time.UTC
	if m[7] == "+" || m[7] == "-" {
		offset := num(m[8], 0)*3600 + num(m[9], 0)*60
		if m[7] == "-" {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}
	t := time.Date(num(m[1], 0), time.Month(num(m[2], 1)), num(m[3], 1),
		num(m[4], 0), num(m[5], 0), num(m[6], 0), 0, loc)
	return t.Format(time.RFC3339), nil
}

// headerVersion extracts "1.7" from a "%PDF-1.7" signature.
func headerVersion(head []byte) string {
	s := string(head)
	i := strings.Index(s, "%PDF-")
	if i < 0 {
		return ""
	}
	s = s[i+5:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return s[:end]
}

// isBoldFont and isItalicFont guess style from the base font name.
func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	for _, k := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

func isItalicFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "italic") || strings.Contains(n, "oblique")
}

// stripSubset removes the six-letter subset tag from an embedded font name.
func stripSubset(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}
