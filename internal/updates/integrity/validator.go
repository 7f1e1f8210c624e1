// Package integrity checks the integrity metadata supplied with a candidate
// update before it reaches the registry.
//
// The checks here are format checks. They do not verify the authentication
// tag against the referenced content.
package integrity

import (
	"strings"

	"github.com/ipfs/go-cid"

	"secureupdate/internal/updates/models"
)

// RejectMarker is the encryption suffix that marks a record as invalid.
const RejectMarker = "Wrong"

// Verdict is the outcome of validating a record.
type Verdict struct {
	OK     bool
	Reason string
}

// Accept returns a passing verdict.
func Accept() Verdict {
	return Verdict{OK: true}
}

// Reject returns a failing verdict with reason.
func Reject(reason string) Verdict {
	return Verdict{Reason: reason}
}

// Validator inspects a candidate update.
type Validator interface {
	Validate(u *models.Update) Verdict
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(u *models.Update) Verdict

func (f ValidatorFunc) Validate(u *models.Update) Verdict {
	return f(u)
}

// EncryptionMarker rejects records whose encryption field ends in Marker.
type EncryptionMarker struct {
	Marker string
}

// Default returns the validator applied when nothing else is configured.
func Default() Validator {
	return EncryptionMarker{Marker: RejectMarker}
}

func (v EncryptionMarker) Validate(u *models.Update) Verdict {
	marker := v.Marker
	if marker == "" {
		marker = RejectMarker
	}
	if strings.HasSuffix(u.Encryption, marker) {
		return Reject("encryption " + u.Encryption + " is marked invalid")
	}
	return Accept()
}

// ContentID rejects records whose cid is not a parseable content identifier.
type ContentID struct{}

func (ContentID) Validate(u *models.Update) Verdict {
	if _, err := cid.Decode(u.CID); err != nil {
		return Reject("cid is not a valid content identifier: " + err.Error())
	}
	return Accept()
}

// Chain runs validators in order and returns the first rejection.
type Chain []Validator

func (c Chain) Validate(u *models.Update) Verdict {
	for _, v := range c {
		if verdict := v.Validate(u); !verdict.OK {
			return verdict
		}
	}
	return Accept()
}
