package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Validator computes and compares file checksums with one algorithm
type Validator interface {
	Compute(filePath string) (string, error)
	ComputeWithProgress(filePath string, progress io.Writer) (string, error)
	Validate(filePath string, expected string) (bool, error)
	Equal(pathA, pathB string) (bool, error)
	Algorithm() string
}

type validator struct {
	algorithm string
	hashFunc  func() hash.Hash
}

func (v *validator) Algorithm() string {
	return v.algorithm
}

func (v *validator) Compute(filePath string) (string, error) {
	return v.ComputeWithProgress(filePath, io.Discard)
}

func (v *validator) ComputeWithProgress(filePath string, progress io.Writer) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := v.hashFunc()
	teeReader := io.TeeReader(file, progress)
	if _, err := io.Copy(h, teeReader); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func (v *validator) Validate(filePath string, expected string) (bool, error) {
	if expected == "" {
		return false, fmt.Errorf("no %s checksum available for validation", v.algorithm)
	}

	actual, err := v.Compute(filePath)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(actual, expected), nil
}

// Equal reports whether two files have the same content. Sizes are
// compared first so differing files are usually rejected without hashing.
func (v *validator) Equal(pathA, pathB string) (bool, error) {
	infoA, err := os.Stat(pathA)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	sumA, err := v.Compute(pathA)
	if err != nil {
		return false, err
	}
	sumB, err := v.Compute(pathB)
	if err != nil {
		return false, err
	}
	return sumA == sumB, nil
}

// NewValidator creates a new checksum validator for the specified algorithm
func NewValidator(algorithm string) (Validator, error) {
	alg := strings.ToLower(algorithm)
	switch alg {
	case "sha1":
		return &validator{algorithm: "sha1", hashFunc: sha1.New}, nil
	case "sha256":
		return &validator{algorithm: "sha256", hashFunc: sha256.New}, nil
	case "sha512":
		return &validator{algorithm: "sha512", hashFunc: sha512.New}, nil
	case "md5":
		return &validator{algorithm: "md5", hashFunc: md5.New}, nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm '%s': must be one of: sha1, sha256, sha512, md5", algorithm)
	}
}

// ComputeChecksum computes the checksum of a file using the specified algorithm
func ComputeChecksum(filePath string, algorithm string) (string, error) {
	v, err := NewValidator(algorithm)
	if err != nil {
		return "", err
	}
	return v.Compute(filePath)
}
