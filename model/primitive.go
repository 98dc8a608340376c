package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	fhirmodel "github.com/gofhir/model"
	"github.com/gofhir/model/schema"
)

var (
	decimalRegex   = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)
	urlRegex       = regexp.MustCompile(`^\S+$`)
	canonicalRegex = regexp.MustCompile(`^\S+(\|\S+)?$`)
	idRegex        = regexp.MustCompile(`^[A-Za-z0-9\-.]{1,64}$`)
	oidRegex       = regexp.MustCompile(`^urn:oid:[012](\.(0|[1-9]\d*))+$`)
	instantRegex   = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[012])-(0[1-9]|[12]\d|3[01])T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))$`)
	dateRegex      = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01]))?)?$`)
	dateTimeRegex  = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01])(T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))?)?)?)?$`)
	timeRegex      = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?$`)
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// CheckValue checks the lexical rules of primitive type t for v. A nil
// value is valid.
func CheckValue(t *schema.Type, v Value, path string, opts *fhirmodel.Options) error {
	if v == nil {
		return nil
	}
	if opts == nil {
		opts = fhirmodel.Defaults()
	}
	if t.Value() != v.Kind() {
		return newFieldError(ErrInvalidValue, path, "Invalid value type: %s must be: %s", v.Kind(), t.Value())
	}

	var err error
	s := v.String()
	switch t.Root().Name() {
	case "boolean":
	case "integer":
		err = checkRange(v, math.MinInt32)
	case "unsignedInt":
		err = checkRange(v, 0)
	case "positiveInt":
		err = checkRange(v, 1)
	case "decimal":
		err = checkPattern(s, decimalRegex)
	case "code":
		err = checkCode(s, opts)
	case "id":
		err = checkID(s)
	case "uri":
		err = checkURI(s, opts)
	case "url":
		err = firstError(checkURI(s, opts), checkPattern(s, urlRegex))
	case "canonical":
		err = firstError(checkURI(s, opts), checkPattern(s, canonicalRegex))
	case "oid":
		err = checkPattern(s, oidRegex)
	case "uuid":
		err = checkUUID(s)
	case "base64Binary":
		err = checkBase64(s)
	case "date":
		err = checkPattern(s, dateRegex)
	case "dateTime":
		err = checkPattern(s, dateTimeRegex)
	case "instant":
		err = checkPattern(s, instantRegex)
	case "time":
		err = checkPattern(s, timeRegex)
	case "xhtml":
		err = checkXHTML(s)
	default:
		if v.Kind() == schema.ValueString {
			err = checkString(s, opts)
		}
	}
	if err != nil {
		return newFieldError(ErrInvalidValue, path, "%v", err)
	}
	return nil
}

// CheckID checks a resource logical id.
func CheckID(id, path string) error {
	if err := checkID(id); err != nil {
		return newFieldError(ErrInvalidValue, path, "%v", err)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkRange(v Value, minValue int64) error {
	n := int64(v.(IntValue))
	if n < minValue {
		return fmt.Errorf("integer value: %d is less than minimum required value: %d", n, minValue)
	}
	if n > math.MaxInt32 {
		return fmt.Errorf("integer value: %d is greater than maximum allowed value: %d", n, math.MaxInt32)
	}
	return nil
}

func checkPattern(s string, re *regexp.Regexp) error {
	if !re.MatchString(s) {
		return fmt.Errorf("string value: '%s' is not valid with respect to pattern: %s", s, re.String())
	}
	return nil
}

func checkLength(s string, opts *fhirmodel.Options) error {
	if n := utf8.RuneCountInString(s); n > opts.MaxStringLength {
		return fmt.Errorf("string value length: %d is greater than maximum allowed length: %d", n, opts.MaxStringLength)
	}
	return nil
}

func isAllowedWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// isWhitespace follows the XML Schema whitespace classes used by FHIR
// patterns: no-break spaces are ordinary characters, information
// separators U+001C to U+001F count as whitespace.
func isWhitespace(r rune) bool {
	switch r {
	case '\u00a0', '\u2007', '\u202f', '\u0085':
		return false
	}
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func isControl(r rune) bool {
	return r < 32 && r != '\t' && r != '\n' && r != '\r'
}

func checkString(s string, opts *fhirmodel.Options) error {
	if err := checkLength(s, opts); err != nil {
		return err
	}
	count := 0
	for _, r := range s {
		switch {
		case isAllowedWhitespace(r):
		case isWhitespace(r):
			return fmt.Errorf("string value: '%s' is not valid with respect to pattern: [ \\r\\n\\t\\S]+", s)
		case opts.CheckControlChars && isControl(r):
			return fmt.Errorf("string value contains unsupported control characters: %q", s)
		default:
			count++
		}
	}
	if count < 1 {
		return fmt.Errorf("trimmed String value length: %d is less than minimum required length: 1", count)
	}
	return nil
}

func checkCode(s string, opts *fhirmodel.Options) error {
	if s == "" {
		return fmt.Errorf("code value: '%s' must begin with a non-whitespace character", s)
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if isWhitespace(first) {
		return fmt.Errorf("code value: '%s' must begin with a non-whitespace character", s)
	}
	if isWhitespace(last) {
		return fmt.Errorf("code value: '%s' must end with a non-whitespace character", s)
	}
	prevSpace := false
	for _, r := range s {
		if isWhitespace(r) {
			if r != ' ' {
				return fmt.Errorf("code value: '%s' must not contain whitespace other than a single space", s)
			}
			if prevSpace {
				return fmt.Errorf("code value: '%s' must not contain consecutive spaces", s)
			}
			prevSpace = true
			continue
		}
		if opts.CheckControlChars && isControl(r) {
			return fmt.Errorf("string value contains unsupported control characters: %q", s)
		}
		prevSpace = false
	}
	return checkLength(s, opts)
}

func checkID(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("id value must not be empty")
	case len(s) > 64:
		return fmt.Errorf("id value length: %d is greater than maximum allowed length: 64", len(s))
	case !idRegex.MatchString(s):
		return fmt.Errorf("id value: '%s' contains invalid characters", s)
	}
	return nil
}

func checkURI(s string, opts *fhirmodel.Options) error {
	if err := checkLength(s, opts); err != nil {
		return err
	}
	if strings.IndexFunc(s, isWhitespace) >= 0 {
		return fmt.Errorf("uri value: '%s' must not contain whitespace", s)
	}
	return nil
}

func checkUUID(s string) error {
	rest, ok := strings.CutPrefix(s, "urn:uuid:")
	if !ok {
		return fmt.Errorf("uuid value: '%s' must start with urn:uuid:", s)
	}
	if len(rest) != 36 {
		return fmt.Errorf("uuid value: '%s' is not a valid UUID", s)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return fmt.Errorf("uuid value: '%s': %w", s, err)
	}
	return nil
}

func checkBase64(s string) error {
	n := len(s)
	if n%4 != 0 {
		return fmt.Errorf("invalid base64 string length: %d", n)
	}
	for i := 0; i < n; i++ {
		c := s[i]
		if c == '=' {
			if i < n-2 || (i == n-2 && s[n-1] != '=') {
				return fmt.Errorf("unexpected base64 padding character: '=' found at index: %d", i)
			}
			continue
		}
		if strings.IndexByte(base64Chars, c) < 0 {
			return fmt.Errorf("illegal base64 character: '%c' found at index: %d", c, i)
		}
	}
	if pad := strings.HasSuffix(s, "="); pad {
		mask, at := 0b000011, n-2
		if strings.HasSuffix(s, "==") {
			mask, at = 0b001111, n-3
		}
		idx := strings.IndexByte(base64Chars, s[at])
		if idx < 0 {
			return fmt.Errorf("unexpected base64 padding character: '=' found at index: %d", at)
		}
		if idx&mask != 0 {
			return fmt.Errorf("invalid base64 string: non-zero padding bits; character: '%c' found at index: %d should be: '%c'",
				s[at], at, base64Chars[idx&^mask])
		}
	}
	return nil
}

func checkXHTML(s string) error {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<div") || !strings.HasSuffix(trimmed, "</div>") {
		return fmt.Errorf("invalid XHTML content: narrative must be a single div element")
	}
	return nil
}
