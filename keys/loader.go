package keys

import (
	"crypto"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// pemPrefix marks environment material that is already PEM text rather than base64.
const pemPrefix = "-----"

// Source selects where key material and the key identifier come from.
//
// Within each group the first non-empty field wins: string, then file, then env.
type Source struct {
	PEMString string `yaml:"pem_string" env:"PEM_STRING"`
	PEMFile   string `yaml:"pem_file" env:"PEM_FILE"`
	PEMEnv    string `yaml:"pem_env" env:"PEM_ENV"`
	KIDString string `yaml:"kid_string" env:"KID_STRING"`
	KIDFile   string `yaml:"kid_file" env:"KID_FILE"`
	KIDEnv    string `yaml:"kid_env" env:"KID_ENV"`
}

// SigningKey is parsed key material ready for signing. A nil *SigningKey means no key is configured.
type SigningKey struct {
	Family Family
	Method jwt.SigningMethod
	Key    crypto.Signer
	KeyID  string
}

// Public returns the verification half of the key.
func (k *SigningKey) Public() crypto.PublicKey {
	if k == nil || k.Key == nil {
		return nil
	}
	return k.Key.Public()
}

// Loader reads key sources. The zero value uses the process environment and filesystem.
type Loader struct {
	LookupEnv func(string) (string, bool)
	ReadFile  func(string) ([]byte, error)
	Logger    *slog.Logger
}

// Load resolves src with the default Loader.
func Load(algorithm string, src *Source) (*SigningKey, error) {
	return Loader{}.Load(algorithm, src)
}

// Load resolves the signing key for algorithm from src.
//
// It returns (nil, nil) when no source yields material. A key file that cannot be read
// counts as no material and is only logged. Unsupported algorithms and unparsable material
// are errors.
func (l Loader) Load(algorithm string, src *Source) (*SigningKey, error) {
	if src == nil {
		return nil, nil
	}
	l = l.withDefaults()

	pem, err := l.pem(src)
	if err != nil {
		return nil, err
	}
	if pem == nil {
		return nil, nil
	}

	family, err := FamilyFor(algorithm)
	if err != nil {
		return nil, err
	}
	method, err := methodFor(algorithm, family)
	if err != nil {
		return nil, err
	}
	key, err := parsePrivateKey(pem, family, method)
	if err != nil {
		return nil, err
	}

	kid, err := l.kid(src)
	if err != nil {
		return nil, err
	}

	return &SigningKey{
		Family: family,
		Method: method,
		Key:    key,
		KeyID:  kid,
	}, nil
}

func (l Loader) withDefaults() Loader {
	if l.LookupEnv == nil {
		l.LookupEnv = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}
	if l.Logger == nil {
		l.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

func (l Loader) pem(src *Source) ([]byte, error) {
	switch {
	case src.PEMString != "":
		return []byte(src.PEMString), nil
	case src.PEMFile != "":
		data, err := l.ReadFile(src.PEMFile)
		if err != nil {
			l.Logger.Warn("signing key file unreadable, continuing without key",
				slog.String("path", src.PEMFile),
				slog.Any("error", err),
			)
			return nil, nil
		}
		return data, nil
	case src.PEMEnv != "":
		value, ok := l.LookupEnv(src.PEMEnv)
		if !ok || value == "" {
			return nil, nil
		}
		return decodeEnvMaterial(value)
	default:
		return nil, nil
	}
}

func (l Loader) kid(src *Source) (string, error) {
	switch {
	case src.KIDString != "":
		return src.KIDString, nil
	case src.KIDFile != "":
		data, err := l.ReadFile(src.KIDFile)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrKeyIDUnavailable, err)
		}
		return chomp(string(data)), nil
	case src.KIDEnv != "":
		value, ok := l.LookupEnv(src.KIDEnv)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s is not set", ErrKeyIDUnavailable, src.KIDEnv)
		}
		return value, nil
	default:
		return "", nil
	}
}

// decodeEnvMaterial accepts PEM text as-is and base64 otherwise.
func decodeEnvMaterial(value string) ([]byte, error) {
	if strings.HasPrefix(value, pemPrefix) {
		return []byte(value), nil
	}

	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, value)

	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: environment material is neither PEM nor base64", ErrMalformedKey)
	}
	return data, nil
}

func chomp(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
