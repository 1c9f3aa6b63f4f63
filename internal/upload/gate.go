// ABOUTME: Upload gate validating icon payloads and committing them under fresh identities
// ABOUTME: Returns an identity only after the payload is fully written

package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/2389/folder-icons/internal/assetstore"
)

// DefaultMaxSize is the largest accepted payload when none is configured.
const DefaultMaxSize int64 = 1 << 20

// mintAttempts bounds retries when a freshly minted identity already exists.
const mintAttempts = 3

// Gate validates uploads and commits them to the asset store.
// It does not touch folder configuration.
type Gate struct {
	store   *assetstore.Store
	maxSize int64
	logger  *slog.Logger
}

// NewGate creates a gate. A non-positive maxSize selects DefaultMaxSize.
func NewGate(store *assetstore.Store, maxSize int64, logger *slog.Logger) *Gate {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		store:   store,
		maxSize: maxSize,
		logger:  logger.With("component", "upload"),
	}
}

// MaxSize returns the largest accepted payload in bytes.
func (g *Gate) MaxSize() int64 {
	return g.maxSize
}

// Upload validates and stores a payload of the given size. A negative size means
// unknown; the payload is then measured while it is written.
func (g *Gate) Upload(r io.Reader, size int64) (assetstore.Identity, error) {
	if err := g.check(size); err != nil {
		return "", err
	}

	// Guard against a size hint that understates the body.
	limited := io.LimitReader(r, g.maxSize+1)

	for attempt := 1; attempt <= mintAttempts; attempt++ {
		id := assetstore.NewIdentity()
		n, err := g.store.Put(id, limited)
		if errors.Is(err, assetstore.ErrExists) {
			g.logger.Warn("minted identity already exists, retrying", "identity", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", &IOFailure{Cause: err}
		}

		if verr := g.check(n); verr != nil {
			g.store.Discard(id)
			return "", verr
		}

		g.logger.Info("icon uploaded", "identity", id, "bytes", n)
		return id, nil
	}

	return "", &IOFailure{Cause: fmt.Errorf("could not mint a unique identity after %d attempts", mintAttempts)}
}

func (g *Gate) check(size int64) error {
	switch {
	case size == 0:
		return &ValidationError{Reason: ReasonEmpty, Size: 0, Max: g.maxSize}
	case size > g.maxSize:
		return &ValidationError{Reason: ReasonTooLarge, Size: size, Max: g.maxSize}
	}
	return nil
}
