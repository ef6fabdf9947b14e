package lambdawg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagOrdersDiagnosticsByInsertion(t *testing.T) {
	var b bag
	b.addf(SeverityError, CodeUndefinedVariable, "undefined variable %q", Span{}, "y")
	b.addf(SeverityWarning, CodeNonExhaustive, "non-exhaustive match", Span{})
	b.addf(SeverityError, CodeTypeMismatch, "type mismatch", Span{})

	require.Len(t, b.diagnostics, 3)
	assert.Equal(t, CodeUndefinedVariable, b.diagnostics[0].Code)
	assert.Equal(t, CodeNonExhaustive, b.diagnostics[1].Code)
	assert.Equal(t, CodeTypeMismatch, b.diagnostics[2].Code)
	assert.Equal(t, `undefined variable "y"`, b.diagnostics[0].Message)
}

func TestBagHasErrorsAndFilters(t *testing.T) {
	var b bag
	assert.False(t, b.hasErrors())

	b.addf(SeverityWarning, CodeNonExhaustive, "warn", Span{})
	assert.False(t, b.hasErrors())
	assert.Len(t, b.warnings(), 1)
	assert.Empty(t, b.errors())

	b.addf(SeverityError, CodeInternal, "boom", Span{})
	assert.True(t, b.hasErrors())
	assert.Len(t, b.errors(), 1)
}

func TestBagAttachStampsEveryDiagnostic(t *testing.T) {
	var b bag
	b.addf(SeverityError, CodeTypeMismatch, "mismatch", Span{})
	b.addf(SeverityWarning, CodeNonExhaustive, "warn", Span{})
	b.attach("let x = 1", "main.lwg")

	for _, d := range b.diagnostics {
		assert.Equal(t, "let x = 1", d.Source)
		assert.Equal(t, "main.lwg", d.Filename)
	}
}

func TestDiagnosticErrorIncludesFilenameAndCode(t *testing.T) {
	d := newDiagnostic(SeverityError, CodeUndefinedVariable, "undefined variable", Span{
		Start: Position{Line: 2, Column: 5},
	})
	d.Filename = "main.lwg"
	msg := d.Error()
	assert.Contains(t, msg, "main.lwg:2:5")
	assert.Contains(t, msg, CodeUndefinedVariable)
	assert.Contains(t, msg, "undefined variable")
}
