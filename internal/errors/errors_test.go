package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_Direct(t *testing.T) {
	assert.Equal(t, ErrTransport, Kind(ErrTransport))
	assert.Equal(t, ErrConfig, Kind(ErrConfig))
}

func TestKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("uploading foo.md: %w", ErrRemoteRejected)
	assert.Equal(t, ErrRemoteRejected, Kind(err))

	err = fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrNotFound))
	assert.Equal(t, ErrNotFound, Kind(err))
}

func TestKind_Unclassified(t *testing.T) {
	assert.Nil(t, Kind(errors.New("plain")))
	assert.Nil(t, Kind(nil))
}

func TestHelpers_WrapTheirKind(t *testing.T) {
	assert.ErrorIs(t, Transportf("POST %s", "/api/v1/auth"), ErrTransport)
	assert.ErrorIs(t, Rejectedf("upload %s", "a.md"), ErrRemoteRejected)
	assert.ErrorIs(t, NotFoundf("embed %s", "doc-1"), ErrNotFound)
	assert.ErrorIs(t, Configf("bad glob %q", "[x"), ErrConfig)
}

func TestHelpers_KeepMessage(t *testing.T) {
	err := Rejectedf("upload %s", "a.md")
	assert.Contains(t, err.Error(), "upload a.md")
	assert.Contains(t, err.Error(), "rejected by server")
}
