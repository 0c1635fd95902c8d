package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCodeAndChain(t *testing.T) {
	base := New(CodeDataError, "bad cell")
	wrapped := Wrap(base, "while loading dataset")

	require.Error(t, wrapped)
	assert.Equal(t, CodeDataError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, base))
	assert.Contains(t, wrapped.Error(), "while loading dataset")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "nothing"))
	assert.NoError(t, StageFailed("leakage", nil))
}

func TestStageFailed(t *testing.T) {
	cause := stderrors.New("sink unavailable")
	err := StageFailed("holdout", cause)

	require.Error(t, err)
	assert.Equal(t, CodeStageFailed, GetCode(err))
	assert.Contains(t, err.Error(), `stage "holdout" failed`)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapf(t *testing.T) {
	base := New(CodeDataError, "bad cell")
	wrapped := Wrapf(base, "failed to marshal report %s", "leakage_audit_report")

	require.Error(t, wrapped)
	assert.Equal(t, CodeDataError, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "leakage_audit_report")
	assert.True(t, stderrors.Is(wrapped, base))
	assert.NoError(t, Wrapf(nil, "nothing %d", 1))
}

func TestWithCode(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := WithCode(CodeSinkError, cause)

	require.Error(t, err)
	assert.Equal(t, CodeSinkError, GetCode(err))
	assert.True(t, stderrors.Is(err, cause))
	assert.NoError(t, WithCode(CodeSinkError, nil))
}

func TestGetCode_UnknownForPlainErrors(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestConfigInvalid(t *testing.T) {
	err := ConfigInvalid("AUDIT_OUTER_FOLDS must be at least 2")
	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Equal(t, "AUDIT_OUTER_FOLDS must be at least 2", err.Message)
}
