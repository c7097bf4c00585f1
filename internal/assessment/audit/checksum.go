// internal/assessment/audit/checksum.go
package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"migration-assessment/internal/models"
)

var ErrNoProfileData = errors.New("PROFILE_DATA_MISSING")

// ProfileChecksum hashes the profile data section as it was submitted, so
// a change to any leaf, read by the engine or not, changes the result.
// Profiles built in code have no raw form and hash their typed data.
func ProfileChecksum(profile *models.ApplicantProfile) (string, error) {
	if len(profile.RawData) > 0 {
		return ChecksumDocument(profile.RawData)
	}
	return Checksum(profile.Data)
}

// ProfileDocumentChecksum is ProfileChecksum for a profile document that
// has not been decoded yet.
func ProfileDocumentChecksum(raw []byte) (string, error) {
	var profile models.ApplicantProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return "", fmt.Errorf("failed to decode profile document: %w", err)
	}
	if len(profile.RawData) == 0 {
		return "", ErrNoProfileData
	}
	return ProfileChecksum(&profile)
}

// Checksum hashes the canonical JSON form of v. Object keys are sorted at
// every depth, so two values that differ only in key order hash the same.
func Checksum(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checksum input: %w", err)
	}
	return ChecksumDocument(raw)
}

// ChecksumDocument hashes raw JSON after canonicalizing it.
func ChecksumDocument(raw []byte) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize re-encodes a JSON document with sorted keys and no
// insignificant whitespace. Numbers keep their literal text.
func Canonicalize(raw []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode checksum document: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("failed to decode checksum document: trailing data")
	}

	// encoding/json writes map keys in sorted order at every level.
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode canonical document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
