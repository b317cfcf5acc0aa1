package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchByCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel *AppError
	}{
		{"missing file", MissingFile("a.csv"), ErrMissingFile},
		{"read", ReadError("a.csv", fmt.Errorf("boom")), ErrRead},
		{"schema", SchemaError([]string{"G3"}), ErrSchema},
		{"domain", DomainError("sex", "X"), ErrDomain},
		{"empty", EmptyResult(5), ErrEmptyResult},
		{"degenerate", DegenerateTable("1x2 table"), ErrDegenerateTable},
		{"groups", InsufficientGroups("Mjob", 1), ErrInsufficientGroups},
		{"singular", SingularDesign("rank 3 < 4"), ErrSingularDesign},
		{"config", ConfigInvalid("bad alpha"), ErrConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))
			assert.False(t, stderrors.Is(tt.err, internalSentinel()))
		})
	}
	assert.False(t, stderrors.Is(SchemaError(nil), ErrDomain))
}

func internalSentinel() *AppError { return &AppError{Code: CodeInternalError} }

func TestContextInMessage(t *testing.T) {
	err := SchemaError([]string{"higher", "internet"})
	assert.Equal(t, "missing columns: higher, internet (missing=2)", err.Error())

	err = DomainError("sex", "X").With("row", 4)
	assert.Contains(t, err.Error(), `value "X" outside declared domain of column sex`)
	assert.Contains(t, err.Error(), "column=sex, row=4")
}

func TestWrapKeepsCode(t *testing.T) {
	inner := SingularDesign("rank deficient")
	wrapped := Wrapf(fmt.Errorf("stage: %w", inner), "regression on %s", "G3")

	assert.Equal(t, CodeSingularDesign, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, ErrSingularDesign))

	var app *AppError
	assert.True(t, stderrors.As(wrapped, &app))

	plain := Wrap(fmt.Errorf("disk full"), "write artifact")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}
