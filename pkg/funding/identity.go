package funding

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const (
	// AccountIDLength is the length of an account identity in bytes.
	AccountIDLength = 32

	// ProjectIDLength is the length of a project identity in bytes.
	ProjectIDLength = 32

	// MetadataHashLength is the expected length of the opaque project metadata hash.
	MetadataHashLength = 46
)

var (
	ErrInvalidAccountID = errors.New("invalid account ID")
	ErrInvalidProjectID = errors.New("invalid project ID")
)

// AccountID is the identity of a participant.
type AccountID [AccountIDLength]byte

// ProjectID is the identity of a project, derived from the proposal content.
type ProjectID [ProjectIDLength]byte

// NullProjectID is the zero value of a ProjectID.
var NullProjectID = ProjectID{}

func (a AccountID) ToHex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (p ProjectID) ToHex() string {
	return "0x" + hex.EncodeToString(p[:])
}

// AccountIDFromHex parses an AccountID from its hex representation.
func AccountIDFromHex(s string) (AccountID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return AccountID{}, errors.Wrap(ErrInvalidAccountID, err.Error())
	}
	if len(b) != AccountIDLength {
		return AccountID{}, errors.Wrapf(ErrInvalidAccountID, "expected %d bytes, got %d", AccountIDLength, len(b))
	}
	var a AccountID
	copy(a[:], b)
	return a, nil
}

// ProjectIDFromHex parses a ProjectID from its hex representation.
func ProjectIDFromHex(s string) (ProjectID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return NullProjectID, errors.Wrap(ErrInvalidProjectID, err.Error())
	}
	if len(b) != ProjectIDLength {
		return NullProjectID, errors.Wrapf(ErrInvalidProjectID, "expected %d bytes, got %d", ProjectIDLength, len(b))
	}
	var p ProjectID
	copy(p[:], b)
	return p, nil
}
