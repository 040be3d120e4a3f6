// Package cryptox implements password hashing for stored user credentials.
//
// Hashes are argon2id digests encoded in the PHC string format
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
//
// so the parameters and salt travel with the digest and can be tuned
// without invalidating existing passwords.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"golang.org/x/crypto/argon2"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, digest string) bool
}

var _ PasswordHasher = (*Argon2)(nil)

// ErrEmptyPassword is returned by Hash for an empty input.
var ErrEmptyPassword = fmt.Errorf("%w: empty password", common.ErrorHash)

var errMalformedDigest = errors.New("malformed digest")

// randRead is swapped in tests to simulate entropy failures.
var randRead = rand.Read

// Salt and key sizes, in bytes, for new hashes.
const (
	DefaultSaltLength = 16
	DefaultKeyLength  = 32
)

// Argon2 holds the argon2id cost parameters used for new hashes.
type Argon2 struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewArgon2 returns a hasher with the OWASP-recommended argon2id baseline.
func NewArgon2() *Argon2 {
	return &Argon2{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  DefaultSaltLength,
		KeyLength:   DefaultKeyLength,
	}
}

func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if a.Iterations == 0 || a.Parallelism == 0 || a.KeyLength == 0 || a.SaltLength == 0 {
		return "", fmt.Errorf("%w: invalid argon2 parameters", common.ErrorHash)
	}

	salt := make([]byte, a.SaltLength)
	if _, err := randRead(salt); err != nil {
		return "", fmt.Errorf("%w: generating salt: %w", common.ErrorHash, err)
	}

	key := argon2.IDKey([]byte(password), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare reports whether password matches digest. Malformed digests
// simply do not match.
func (a *Argon2) Compare(password, digest string) bool {
	params, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func decodeDigest(digest string) (*Argon2, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, errMalformedDigest
	}

	params := &Argon2{}
	var p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &p); err != nil {
		return nil, nil, nil, errMalformedDigest
	}
	if params.Iterations == 0 || p == 0 || p > 255 {
		return nil, nil, nil, errMalformedDigest
	}
	params.Parallelism = uint8(p)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, nil, errMalformedDigest
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, errMalformedDigest
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
