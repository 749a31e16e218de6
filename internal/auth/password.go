package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Params tunes the argon2id cost.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams follows the OWASP argon2id baseline.
var DefaultParams = Params{Memory: 19 * 1024, Time: 2, Threads: 1, SaltLen: 16, KeyLen: 32}

// Hasher computes and verifies password digests keyed by the server secret.
// The secret never reaches the store: a dump of password hashes without it is
// not enough to mount an offline guess.
type Hasher struct {
	secret []byte
	params Params
}

// NewHasher returns a Hasher using DefaultParams.
func NewHasher(secret string) (*Hasher, error) {
	return NewHasherWithParams(secret, DefaultParams)
}

// NewHasherWithParams returns a Hasher with explicit argon2id parameters.
func NewHasherWithParams(secret string, params Params) (*Hasher, error) {
	if secret == "" {
		return nil, errors.New("auth: server secret must be provided")
	}
	if params.Memory == 0 || params.Time == 0 || params.Threads == 0 || params.SaltLen == 0 || params.KeyLen == 0 {
		return nil, errors.New("auth: invalid argon2 parameters")
	}
	return &Hasher{secret: []byte(secret), params: params}, nil
}

// Hash returns an encoded digest with a fresh random salt embedded.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: salt: %w", shared.ErrHashing, err)
	}
	key := argon2.IDKey(h.keyed(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest. A digest that cannot be
// evaluated returns ErrHashing rather than false.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	d, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey(h.keyed(plaintext), d.salt, d.params.Time, d.params.Memory, d.params.Threads, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

func (h *Hasher) keyed(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	_, _ = mac.Write([]byte(plaintext))
	return mac.Sum(nil)
}

type digest struct {
	params Params
	salt   []byte
	key    []byte
}

func decodeDigest(encoded string) (digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return digest{}, fmt.Errorf("%w: malformed digest", shared.ErrHashing)
	}
	if parts[1] != "argon2id" {
		return digest{}, fmt.Errorf("%w: unsupported algorithm %q", shared.ErrHashing, parts[1])
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return digest{}, fmt.Errorf("%w: malformed version", shared.ErrHashing)
	}
	if version != argon2.Version {
		return digest{}, fmt.Errorf("%w: unsupported version %d", shared.ErrHashing, version)
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return digest{}, fmt.Errorf("%w: malformed parameters", shared.ErrHashing)
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return digest{}, fmt.Errorf("%w: invalid parameters", shared.ErrHashing)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return digest{}, fmt.Errorf("%w: malformed salt", shared.ErrHashing)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return digest{}, fmt.Errorf("%w: malformed hash", shared.ErrHashing)
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return digest{params: p, salt: salt, key: key}, nil
}
