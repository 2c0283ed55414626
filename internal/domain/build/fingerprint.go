package build

import (
	"crypto/sha256"
	"encoding/hex"
)

// RendererVersion changes whenever rendered output would differ for the same
// record, forcing a full rewrite on the next export.
const RendererVersion = "goldmark-ugc-1"

// Fingerprint identifies one exported document. Two exports with the same
// RenderHash produce byte-identical output.
type Fingerprint struct {
	ContentHash  string `json:"content"`
	ConfigHash   string `json:"config"`
	RendererHash string `json:"renderer"`
	RenderHash   string `json:"render"`
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (f *Fingerprint) ComputeRenderHash() {
	h := sha256.New()
	h.Write([]byte(f.ContentHash))
	h.Write([]byte(f.ConfigHash))
	h.Write([]byte(f.RendererHash))
	f.RenderHash = hex.EncodeToString(h.Sum(nil))
}

func NewFingerprint(contentJSON []byte, config string) Fingerprint {
	f := Fingerprint{
		ContentHash:  HashBytes(contentJSON),
		ConfigHash:   HashBytes([]byte(config)),
		RendererHash: HashBytes([]byte(RendererVersion)),
	}
	f.ComputeRenderHash()
	return f
}
