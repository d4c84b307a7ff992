// Package sshkey discovers and generates the SSH keys used for
// authenticated clone and pull transport.
package sshkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyType is the algorithm of a discovered or generated key.
type KeyType string

const (
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeRSA     KeyType = "rsa"
	KeyTypeECDSA   KeyType = "ecdsa"
)

// keyPrefixes maps on-disk file name prefixes to key types, in
// discovery order.
var keyPrefixes = []struct {
	prefix string
	typ    KeyType
}{
	{"id_ed25519", KeyTypeEd25519},
	{"id_rsa", KeyTypeRSA},
	{"id_ecdsa", KeyTypeECDSA},
}

const (
	privatePerm = os.FileMode(0o600)
	publicPerm  = os.FileMode(0o644)
	dirPerm     = os.FileMode(0o700)
)

// Key describes one key pair found on disk.
type Key struct {
	Type        KeyType
	PrivatePath string

	// PublicPath is empty when only the private half is present.
	PublicPath string

	// Fingerprint is the SHA256 fingerprint of the public key, when the
	// public half is present and parseable.
	Fingerprint string
	Comment     string

	// PermissionsOK reports whether the private key is restricted to the
	// owner (0600 or 0400).
	PermissionsOK bool
}

// Discover reports the known key pairs present in dir. A missing
// directory yields an empty result, not an error.
func Discover(dir string) ([]Key, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}

	var keys []Key
	for _, candidate := range keyPrefixes {
		privatePath := filepath.Join(dir, candidate.prefix)
		info, err := os.Stat(privatePath)
		if err != nil {
			continue
		}

		key := Key{
			Type:          candidate.typ,
			PrivatePath:   privatePath,
			PermissionsOK: permissionsOK(info.Mode()),
		}

		publicPath := privatePath + ".pub"
		if data, err := os.ReadFile(publicPath); err == nil {
			key.PublicPath = publicPath
			if pub, comment, _, _, err := ssh.ParseAuthorizedKey(data); err == nil {
				key.Fingerprint = ssh.FingerprintSHA256(pub)
				key.Comment = comment
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Generate creates a new ed25519 key pair in dir: an OpenSSH PEM
// private key (0600) and an authorized_keys public line (0644). An
// existing key is never overwritten.
func Generate(dir, comment string) (Key, error) {
	privatePath := filepath.Join(dir, "id_ed25519")
	if _, err := os.Stat(privatePath); err == nil {
		return Key{}, fmt.Errorf("key already exists: %s", privatePath)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return Key{}, fmt.Errorf("failed to create key directory: %w", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Key{}, fmt.Errorf("failed to generate key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return Key{}, fmt.Errorf("failed to marshal private key: %w", err)
	}
	if err := os.WriteFile(privatePath, pem.EncodeToMemory(block), privatePerm); err != nil {
		return Key{}, fmt.Errorf("failed to write private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return Key{}, fmt.Errorf("failed to derive public key: %w", err)
	}

	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		line += " " + comment
	}
	publicPath := privatePath + ".pub"
	if err := os.WriteFile(publicPath, []byte(line+"\n"), publicPerm); err != nil {
		return Key{}, fmt.Errorf("failed to write public key: %w", err)
	}

	return Key{
		Type:          KeyTypeEd25519,
		PrivatePath:   privatePath,
		PublicPath:    publicPath,
		Fingerprint:   ssh.FingerprintSHA256(sshPub),
		Comment:       comment,
		PermissionsOK: true,
	}, nil
}

// FixPermissions restores the expected modes in dir: 0700 on the
// directory itself, 0600 on private keys, 0644 on public halves.
func FixPermissions(dir string) error {
	if err := os.Chmod(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to fix directory permissions: %w", err)
	}

	for _, candidate := range keyPrefixes {
		privatePath := filepath.Join(dir, candidate.prefix)
		if _, err := os.Stat(privatePath); err == nil {
			if err := os.Chmod(privatePath, privatePerm); err != nil {
				return fmt.Errorf("failed to fix private key permissions: %w", err)
			}
		}
		publicPath := privatePath + ".pub"
		if _, err := os.Stat(publicPath); err == nil {
			if err := os.Chmod(publicPath, publicPerm); err != nil {
				return fmt.Errorf("failed to fix public key permissions: %w", err)
			}
		}
	}
	return nil
}

func permissionsOK(mode os.FileMode) bool {
	perm := mode.Perm()
	return perm == 0o600 || perm == 0o400
}
