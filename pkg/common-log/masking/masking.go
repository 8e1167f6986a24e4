package masking

import (
	"strings"
	"unicode/utf8"
)

type MaskingType string

const (
	// Full replaces every character.
	Full MaskingType = "full"
	// Email keeps the first character of the local part and the whole domain.
	Email MaskingType = "email"
	// Last4 keeps the last four characters.
	Last4 MaskingType = "last4"
)

const maskChar = "X"

// MaskingOptionDto selects a field by dotted path. A "*" segment matches every
// element of an array, e.g. "body.*.email".
type MaskingOptionDto struct {
	MaskingField string
	MaskingType  MaskingType
	IsArray      bool
}

type MaskingService struct{}

func NewMaskingService() *MaskingService {
	return &MaskingService{}
}

func (MaskingService) Masking(value string, maskingType MaskingType) string {
	if value == "" {
		return value
	}

	switch maskingType {
	case Email:
		local, domain, found := strings.Cut(value, "@")
		if !found || local == "" {
			return mask(value)
		}
		_, size := utf8.DecodeRuneInString(local)
		return local[:size] + mask(local[size:]) + "@" + domain
	case Last4:
		runes := []rune(value)
		if len(runes) <= 4 {
			return mask(value)
		}
		return mask(string(runes[:len(runes)-4])) + string(runes[len(runes)-4:])
	default:
		return mask(value)
	}
}

// mask replaces each rune of s with maskChar.
func mask(s string) string {
	return strings.Repeat(maskChar, utf8.RuneCountInString(s))
}
