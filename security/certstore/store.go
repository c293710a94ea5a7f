package certstore

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gopkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/ISearcher/Rest4WebApi/logger"
)

// DefaultMachineStore is the machine-wide directory searched when no store
// path is configured.
const DefaultMachineStore = "/etc/webapi/certs"

// ErrNotOpen is returned by Find when the store has not been opened.
var ErrNotOpen = errors.New("certstore: store is not open")

// Store is a read-only collection of client certificates.
type Store interface {
	// Open loads the store. A store that does not exist opens empty.
	Open() error
	// Find returns the first certificate whose leaf serial number equals
	// serial, or nil when there is none.
	Find(serial *big.Int) (*tls.Certificate, error)
	// Close releases the loaded entries.
	Close() error
}

// DirStore is a Store backed by a directory of PEM and PKCS#12 files.
//
// Recognized entries:
//   - *.pem, *.crt: certificate and private key, either in the same file or
//     with the key in a sibling file with the .key extension
//   - *.p12, *.pfx: PKCS#12 bundles decrypted with Password, in legacy or
//     PBES2/AES form
type DirStore struct {
	// Path is the store directory.
	Path string
	// Password decrypts PKCS#12 entries.
	Password string

	entries []tls.Certificate
	open    bool
	log     *logger.Logger
}

// NewDirStore creates a store over dir. An empty dir selects DefaultMachineStore.
func NewDirStore(dir, password string) *DirStore {
	if dir == "" {
		dir = DefaultMachineStore
	}
	return &DirStore{
		Path:     dir,
		Password: password,
		log:      logger.WithComponent("certstore"),
	}
}

// Open reads every recognized entry in the directory. PEM entries that
// cannot be parsed are skipped at debug level; PKCS#12 bundles that cannot
// be decoded, e.g. with a wrong password, are skipped with a warning.
func (s *DirStore) Open() error {
	s.entries = nil
	s.open = true

	files, err := os.ReadDir(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("certstore: open %s: %w", s.Path, err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(s.Path, name)
		var (
			cert *tls.Certificate
			err  error
		)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pem", ".crt":
			cert, err = loadPEM(path)
			if err != nil {
				s.log.Debug("skipping store entry", logger.Fields("path", path, logger.FieldError, err.Error()))
				continue
			}
		case ".p12", ".pfx":
			cert, err = loadPKCS12(path, s.Password)
			if err != nil {
				s.log.Warn("cannot decode PKCS#12 store entry", logger.Fields("path", path, logger.FieldError, err.Error()))
				continue
			}
		default:
			continue
		}
		s.entries = append(s.entries, *cert)
	}
	return nil
}

// Find returns the first loaded certificate matching serial.
func (s *DirStore) Find(serial *big.Int) (*tls.Certificate, error) {
	if !s.open {
		return nil, ErrNotOpen
	}
	for i := range s.entries {
		if s.entries[i].Leaf != nil && s.entries[i].Leaf.SerialNumber.Cmp(serial) == 0 {
			cert := s.entries[i]
			return &cert, nil
		}
	}
	return nil, nil
}

// Close drops the loaded entries.
func (s *DirStore) Close() error {
	s.entries = nil
	s.open = false
	return nil
}

// Len returns the number of loaded entries.
func (s *DirStore) Len() int {
	return len(s.entries)
}

// Resolve opens store, looks up the certificate with the given hex serial
// number and closes the store again. It returns nil without error when no
// certificate matches.
func Resolve(store Store, serialHex string) (cert *tls.Certificate, err error) {
	serial, err := ParseSerial(serialHex)
	if err != nil {
		return nil, err
	}

	if err := store.Open(); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("certstore: close: %w", cerr)
		}
	}()

	return store.Find(serial)
}

// ParseSerial parses a hex serial number, ignoring case, whitespace, colons
// and dashes, as certificate viewers commonly display them.
func ParseSerial(s string) (*big.Int, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if clean == "" {
		return nil, fmt.Errorf("certstore: empty serial number")
	}
	if len(clean)%2 == 1 {
		clean = "0" + clean
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("certstore: invalid serial number %q: %w", s, err)
	}
	return new(big.Int).SetBytes(raw), nil
}

func loadPEM(path string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	keyData := data
	if !containsKey(data) {
		keyPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".key"
		keyData, err = os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("no private key for %s: %w", path, err)
		}
	}

	cert, err := tls.X509KeyPair(data, keyData)
	if err != nil {
		return nil, err
	}
	return withLeaf(&cert)
}

// loadPKCS12 decodes a bundle in any of the common encryption schemes,
// legacy RC2/3DES as well as PBES2 with AES. The leaf is the certificate
// matching the private key, wherever it sits in the bundle.
func loadPKCS12(path, password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, first, rest, err := gopkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, err
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}
	type publicKey interface {
		Equal(crypto.PublicKey) bool
	}
	pub, ok := signer.Public().(publicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", signer.Public())
	}

	if first == nil {
		return nil, fmt.Errorf("bundle holds no certificate")
	}
	all := append([]*x509.Certificate{first}, rest...)
	leafAt := -1
	for i, c := range all {
		if pub.Equal(c.PublicKey) {
			leafAt = i
			break
		}
	}
	if leafAt < 0 {
		return nil, fmt.Errorf("no certificate matches the private key")
	}

	cert := &tls.Certificate{PrivateKey: key, Leaf: all[leafAt]}
	cert.Certificate = append(cert.Certificate, all[leafAt].Raw)
	for i, c := range all {
		if i != leafAt {
			cert.Certificate = append(cert.Certificate, c.Raw)
		}
	}
	return cert, nil
}

func withLeaf(cert *tls.Certificate) (*tls.Certificate, error) {
	if cert.Leaf != nil {
		return cert, nil
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, err
	}
	cert.Leaf = leaf
	return cert, nil
}

func containsKey(data []byte) bool {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return false
		}
		if strings.HasSuffix(block.Type, "PRIVATE KEY") {
			return true
		}
	}
}
