// Package errors_test covers the AppError type, factory functions, and
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"template not found", errors.ErrCodeTemplateNotFound, "template abc not found"},
		{"invalid param", errors.CodeInvalidParam, "queries must not be empty"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeTemplateNotFound, "template not found")
	assert.Equal(t, "[TPL_001] template not found", ae.Error())

	withDetail := ae.WithDetail("id=42")
	assert.Equal(t, "[TPL_001] template not found: id=42", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestNewf(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeAssemblySchemaNotFound, "assembly schema %s not found", "s-1")
	assert.Equal(t, "assembly schema s-1 not found", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.ErrCodeDatabaseError, "failed to query templates")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, errors.ErrCodeDatabaseError, ae.Code)
}

func TestWrap_UnknownCodePreservesOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeTemplateNotFound, "missing")
	outer := errors.Wrap(inner, errors.CodeUnknown, "resolving node template")

	assert.Equal(t, errors.ErrCodeTemplateNotFound, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.MalformedSchema("product", "unknown node_type")
	wrapped := fmt.Errorf("compile: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeMalformedSchema))
	assert.True(t, errors.IsMalformedSchema(wrapped))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", errors.NotFound("x"), true},
		{"template", errors.New(errors.ErrCodeTemplateNotFound, "x"), true},
		{"schema", errors.New(errors.ErrCodeAssemblySchemaNotFound, "x"), true},
		{"job", errors.New(errors.ErrCodeJobNotFound, "x"), true},
		{"internal", errors.Internal("x"), false},
		{"plain", stderrors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.IsNotFound(tc.err))
		})
	}
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsValidation(errors.NewValidationError("queries", "required")))
	assert.True(t, errors.IsValidation(errors.InvalidParam("bad")))
	assert.False(t, errors.IsValidation(errors.Internal("boom")))
}

func TestNewValidationError_Detail(t *testing.T) {
	t.Parallel()

	ae := errors.NewValidationError("queries", "required")
	assert.Equal(t, "field=queries", ae.Detail)
}

func TestMalformedSchema_Detail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "node=product.next_node", errors.MalformedSchema("product.next_node", "missing").Detail)
	assert.Empty(t, errors.MalformedSchema("", "missing").Detail)
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeConflict, errors.GetCode(errors.Conflict("version mismatch")))
}

func TestOracleFailure(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.OracleFailure(nil, "validate"))

	cause := stderrors.New("dial tcp: refused")
	ae := errors.OracleFailure(cause, "validate")
	assert.Equal(t, errors.ErrCodeOracleUnavailable, ae.Code)
	assert.Equal(t, "operation=validate", ae.Detail)
	assert.True(t, stderrors.Is(ae, cause))

	already := errors.New(errors.ErrCodeOracleBadResponse, "bad json")
	assert.Same(t, already, errors.OracleFailure(already, "validate"))
}

//Personal.AI order the ending
