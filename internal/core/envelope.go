package core

import "strings"

// EnvelopeTag identifies the target of a transaction: either a
// "<category>.<name>" envelope reference or one of the special tags below.
// Tags are validated at construction so that a typo cannot silently create
// a phantom envelope.
type EnvelopeTag string

// Special tags for transactions that do not draw from an envelope.
const (
	TagIncome   EnvelopeTag = "INCOME"
	TagLoan     EnvelopeTag = "LOAN"
	TagTransfer EnvelopeTag = "TRANSFER"
)

// EnvelopeRef is a parsed category/name pair.
type EnvelopeRef struct {
	Category string
	Name     string
}

// Tag returns the wire form "<category>.<name>".
func (r EnvelopeRef) Tag() EnvelopeTag {
	return EnvelopeTag(r.Category + "." + r.Name)
}

func (r EnvelopeRef) String() string { return string(r.Tag()) }

// ParseEnvelopeTag validates a raw tag string. It accepts the special tags
// and "<category>.<name>" with non-empty halves; anything else is
// ErrInvalidEnvelope.
func ParseEnvelopeTag(s string) (EnvelopeTag, error) {
	s = strings.TrimSpace(s)
	switch EnvelopeTag(s) {
	case TagIncome, TagLoan, TagTransfer:
		return EnvelopeTag(s), nil
	}
	if _, err := ParseEnvelopeRef(s); err != nil {
		return "", err
	}
	return EnvelopeTag(s), nil
}

// ParseEnvelopeRef splits "<category>.<name>" into its parts. The name may
// itself contain dots; only the first dot separates the category.
func ParseEnvelopeRef(s string) (EnvelopeRef, error) {
	s = strings.TrimSpace(s)
	category, name, ok := strings.Cut(s, ".")
	if !ok || strings.TrimSpace(category) == "" || strings.TrimSpace(name) == "" {
		return EnvelopeRef{}, ErrInvalidEnvelope
	}
	return EnvelopeRef{Category: strings.TrimSpace(category), Name: strings.TrimSpace(name)}, nil
}

// Ref parses the tag as an envelope reference. ok is false for the special
// tags, which have no category/name.
func (t EnvelopeTag) Ref() (EnvelopeRef, bool) {
	switch t {
	case TagIncome, TagLoan, TagTransfer:
		return EnvelopeRef{}, false
	}
	ref, err := ParseEnvelopeRef(string(t))
	if err != nil {
		return EnvelopeRef{}, false
	}
	return ref, true
}

func (t EnvelopeTag) String() string { return string(t) }
