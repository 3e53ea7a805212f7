package mailxsmtp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	msgauthdkim "github.com/emersion/go-msgauth/dkim"
)

// DKIMConfig locates the signing key. A zero value disables signing.
type DKIMConfig struct {
	Selector   string
	Domain     string
	PrivateKey string
	KeyPath    string
}

func (c DKIMConfig) enabled() bool {
	return strings.TrimSpace(c.Selector+c.Domain+c.PrivateKey+c.KeyPath) != ""
}

func (c DKIMConfig) keyPEM() ([]byte, error) {
	if c.PrivateKey != "" {
		return []byte(c.PrivateKey), nil
	}
	if c.KeyPath == "" {
		return nil, errors.New("dkim: provide a private key or a key path")
	}
	data, err := os.ReadFile(c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("dkim: read %s: %w", c.KeyPath, err)
	}
	return data, nil
}

var signedHeaders = []string{"from", "to", "subject", "date", "message-id", "mime-version", "content-type"}

// Signer applies DKIM signatures to outgoing messages. The options are fixed
// at construction except the domain, which falls back to the sender's.
type Signer struct {
	opts msgauthdkim.SignOptions
}

// NewSigner loads the key described by cfg. It returns (nil, nil) when
// DKIM is not configured.
func NewSigner(cfg DKIMConfig) (*Signer, error) {
	if !cfg.enabled() {
		return nil, nil
	}
	selector := strings.TrimSpace(cfg.Selector)
	if selector == "" {
		return nil, errors.New("dkim: selector is required")
	}
	data, err := cfg.keyPEM()
	if err != nil {
		return nil, err
	}
	key, err := loadKey(data)
	if err != nil {
		return nil, err
	}

	return &Signer{opts: msgauthdkim.SignOptions{
		Domain:                 strings.ToLower(strings.TrimSpace(cfg.Domain)),
		Selector:               selector,
		Signer:                 key,
		HeaderCanonicalization: msgauthdkim.CanonicalizationRelaxed,
		BodyCanonicalization:   msgauthdkim.CanonicalizationRelaxed,
		HeaderKeys:             signedHeaders,
	}}, nil
}

// Sign returns message with a DKIM-Signature header prepended. message must
// use CRLF line endings, which buildMessage guarantees. A nil Signer is a
// no-op.
func (s *Signer) Sign(message []byte, from string) ([]byte, error) {
	if s == nil {
		return message, nil
	}
	opts := s.opts
	if opts.Domain == "" {
		opts.Domain = domainOf(from)
	}
	if opts.Domain == "" {
		return nil, fmt.Errorf("dkim: no signing domain for sender %q", from)
	}

	var out bytes.Buffer
	if err := msgauthdkim.Sign(&out, bytes.NewReader(message), &opts); err != nil {
		return nil, fmt.Errorf("dkim: sign: %w", err)
	}
	return out.Bytes(), nil
}

// loadKey returns the first private key in data, PKCS#1 or PKCS#8.
func loadKey(data []byte) (crypto.Signer, error) {
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}
		if rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
			return rsaKey, nil
		}
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("dkim: parse %s: %w", block.Type, err)
		}
		signer, ok := parsed.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("dkim: %T cannot sign", parsed)
		}
		return signer, nil
	}
	return nil, errors.New("dkim: no private key in PEM data")
}
