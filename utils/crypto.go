package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"reflect"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/schema"
)

var (
	encryptionKey []byte

	ErrEncryptionNotInitialized = errors.New("encryption key not initialized")
)

// InitializeEncryption sets the AES-256 key used for sensitive columns.
func InitializeEncryption(key string) error {
	if len(key) != 32 {
		return fmt.Errorf("encryption key must be exactly 32 characters, got %d", len(key))
	}
	encryptionKey = []byte(key)
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordStamp fingerprints a password hash for embedding in reset tokens.
func PasswordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:16])
}

func StampMatches(stamp, hash string) bool {
	return stamp != "" && subtle.ConstantTimeCompare([]byte(stamp), []byte(PasswordStamp(hash))) == 1
}

func newGCM() (cipher.AEAD, error) {
	if encryptionKey == nil {
		return nil, ErrEncryptionNotInitialized
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptSensitiveData seals data with AES-GCM; the nonce is prepended and
// the result base64url encoded. Empty input stays empty.
func EncryptSensitiveData(data string) (string, error) {
	if data == "" {
		return "", nil
	}
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func DecryptSensitiveData(encryptedData string) (string, error) {
	if encryptedData == "" {
		return "", nil
	}
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	raw, err := base64.URLEncoding.DecodeString(encryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// SealedSerializer encrypts a string column on write and decrypts it on
// read. The models package registers it under the name "sealed".
type SealedSerializer struct{}

func (SealedSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	var sealed string
	switch v := dbValue.(type) {
	case nil:
	case string:
		sealed = v
	case []byte:
		sealed = string(v)
	default:
		return fmt.Errorf("sealed column %s: unsupported type %T", field.Name, dbValue)
	}

	plain, err := DecryptSensitiveData(sealed)
	if err != nil {
		return fmt.Errorf("sealed column %s: %w", field.Name, err)
	}
	field.ReflectValueOf(ctx, dst).SetString(plain)
	return nil
}

func (SealedSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	plain, _ := fieldValue.(string)
	return EncryptSensitiveData(plain)
}
