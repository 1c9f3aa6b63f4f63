// ABOUTME: Per-asset details for listings and HTTP caching
// ABOUTME: Computes content digest (blake3) and dominant color of the stored image

package assetstore

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/cenkalti/dominantcolor"
	"github.com/zeebo/blake3"
)

// Info describes a stored asset.
type Info struct {
	Identity Identity
	Size     int64
	ModTime  time.Time
	Digest   string // hex blake3 of the content
	Color    string // dominant color as #rrggbb, empty if the content is not a decodable image
}

// Info reads the asset and returns its details.
func (s *Store) Info(id Identity) (Info, error) {
	f, stat, err := s.Open(id)
	if err != nil {
		return Info{}, fmt.Errorf("opening asset: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	h := blake3.New()
	if _, err := io.Copy(io.MultiWriter(h, &buf), f); err != nil {
		return Info{}, fmt.Errorf("reading asset: %w", err)
	}

	return Info{
		Identity: id,
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		Digest:   hex.EncodeToString(h.Sum(nil)),
		Color:    s.dominantColor(id, buf.Bytes()),
	}, nil
}

// Digest returns the hex blake3 digest of the asset's content.
func (s *Store) Digest(id Identity) (string, error) {
	f, _, err := s.Open(id)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing asset: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) dominantColor(id Identity, data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Debug("asset is not a decodable image", "identity", id, "error", err)
		return ""
	}
	return dominantcolor.Hex(dominantcolor.Find(img))
}
