package wirecmp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Checksum signs and verifies snapshots so that client-held state cannot
// be forged or replayed with modifications. The signature is HMAC-SHA256
// over the canonical JSON serialization of the snapshot's data+memo pair.
type Checksum struct {
	key []byte
	log *slog.Logger
}

// NewChecksum creates a verifier bound to the server's secret key. Keys
// shorter than 32 bytes are stretched through SHA-256. A nil logger falls
// back to slog.Default.
func NewChecksum(secret []byte, logger *slog.Logger) *Checksum {
	if len(secret) < 32 {
		h := sha256.Sum256(secret)
		secret = h[:]
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checksum{key: secret, log: logger}
}

// Generate computes the hex signature over a data+memo pair.
func (c *Checksum) Generate(data, memo map[string]any) (string, error) {
	payload, err := Snapshot{Data: data, Memo: memo}.canonical()
	if err != nil {
		return "", fmt.Errorf("wirecmp: serialize snapshot for signing: %w", err)
	}
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify strips the snapshot's checksum, recomputes the signature over the
// remaining data+memo, and fails with ErrCorruptPayload on any difference.
// The comparison is exact; there is no secondary recovery and no retry, so
// a corrupt checksum is always fatal for that component's update. On mismatch
// the received and generated signatures plus a truncated payload excerpt
// are logged for forensic debugging.
func (c *Checksum) Verify(s Snapshot) error {
	generated, err := c.Generate(s.Data, s.Memo)
	if err != nil {
		return err
	}
	if hmac.Equal([]byte(generated), []byte(s.Checksum)) {
		return nil
	}

	payload, _ := s.canonical()
	c.log.Error("snapshot checksum mismatch",
		"component", s.Name(),
		"id", s.ID(),
		"received", s.Checksum,
		"generated", generated,
		"payload", excerpt(payload, 256),
	)
	return fmt.Errorf("%w: checksum mismatch for component %q", ErrCorruptPayload, s.Name())
}

// excerpt truncates a payload for log output.
func excerpt(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
