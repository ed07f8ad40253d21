package baha

type TokenKind string

const (
	TokenText  TokenKind = "text"
	TokenVideo TokenKind = "video"
	TokenImage TokenKind = "image"
)

// Token is one unit of a reply body: literal text or a media source.
type Token struct {
	Kind  TokenKind `json:"kind" yaml:"kind"`
	Value string    `json:"value" yaml:"value"`
}

func Text(s string) Token {
	return Token{Kind: TokenText, Value: s}
}

func Video(src string) Token {
	return Token{Kind: TokenVideo, Value: src}
}

func Image(src string) Token {
	return Token{Kind: TokenImage, Value: src}
}

func (t Token) IsMedia() bool {
	return t.Kind == TokenVideo || t.Kind == TokenImage
}

type Description []Token

// Strings drops the token kinds, leaving text and media sources in order.
func (d Description) Strings() []string {
	out := make([]string, 0, len(d))
	for _, token := range d {
		out = append(out, token.Value)
	}
	return out
}

// Media returns the media sources of the description in order.
func (d Description) Media() []string {
	out := make([]string, 0)
	for _, token := range d {
		if token.IsMedia() {
			out = append(out, token.Value)
		}
	}
	return out
}
