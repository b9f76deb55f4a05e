package media

import "strings"

// Kind is the closed set of media kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPhoto:
		return "photo"
	default:
		return "unknown"
	}
}

// ParseKind maps the placeholder/CLI spelling back to a Kind.
func ParseKind(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video", "videos":
		return KindVideo
	case "photo", "photos":
		return KindPhoto
	default:
		return KindUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}
