// Package codec provides the optional compression transform evidence bytes
// pass through before being stored. A hot-path codec is intentionally
// write-only: its Go type carries no Decode method, so compressed evidence
// cannot be read back inside the hot process without loading a separate
// cold-path codec. Compression must never alter a signature, which is why
// the factory computes the signature before any codec runs.
package codec

// Encoder is the narrow capability every codec, hot or cold, provides.
type Encoder interface {
	Encode(b []byte) ([]byte, error)
}

// Decoder is the additional capability only a cold-path codec provides.
type Decoder interface {
	Decode(b []byte) ([]byte, error)
}

// Codec is a full read/write codec, used only by offline/forensic tooling
// that needs to read evacuated bytes back out of cold storage. The Agent's
// hot path never holds a value of this type — only an Encoder.
type Codec interface {
	Encoder
	Decoder
}
