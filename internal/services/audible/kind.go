package audible

// ContentKind selects which asset a download request targets.
type ContentKind string

const (
	KindAudio    ContentKind = "audio"
	KindCover    ContentKind = "cover"
	KindDocument ContentKind = "document"
)

// flags returns the tool arguments selecting this content kind.
func (k ContentKind) flags() []string {
	switch k {
	case KindCover:
		return []string{"--cover"}
	case KindDocument:
		return []string{"--pdf"}
	default:
		return []string{"--aax-fallback", "--no-confirm", "--timeout", "0"}
	}
}

// Extensions lists the file extensions this kind is expected to produce.
func (k ContentKind) Extensions() []string {
	switch k {
	case KindCover:
		return []string{".jpg", ".jpeg", ".png"}
	case KindDocument:
		return []string{".pdf"}
	default:
		return []string{".aax", ".aaxc", ".voucher"}
	}
}

// Valid reports whether the kind is one of the supported values.
func (k ContentKind) Valid() bool {
	switch k {
	case KindAudio, KindCover, KindDocument:
		return true
	default:
		return false
	}
}
