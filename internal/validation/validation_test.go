package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidationResultCreation tests creating a new result
func TestValidationResultCreation(t *testing.T) {
	result := NewResult()

	assert.NotNil(t, result)
	assert.Empty(t, result.Messages)
	assert.True(t, result.IsValid())
	assert.True(t, result.CanImport())
	assert.True(t, result.CanPromote())
}

// TestAddError tests adding error messages
func TestAddError(t *testing.T) {
	result := NewResult()

	result.AddError(CodeDownstreamMachineOff, "Machine M-12 off indefinitely, operation seq 3 not replanned")

	assert.Len(t, result.Messages, 1)
	assert.False(t, result.IsValid())
	assert.False(t, result.CanImport())
	assert.False(t, result.CanPromote())
	assert.Equal(t, 1, result.ErrorCount())
}

// TestAddWarning tests adding warning messages
func TestAddWarning(t *testing.T) {
	result := NewResult()

	result.AddWarning(CodeMissingOperationDef, "No Operation row for PO-4471 seq 2, using defaults")

	assert.Len(t, result.Messages, 1)
	assert.True(t, result.IsValid()) // Warnings don't make it invalid
	assert.True(t, result.CanImport()) // Can import with warnings
	assert.False(t, result.CanPromote()) // Cannot promote with warnings
	assert.Equal(t, 1, result.WarningCount())
}

// TestAddInfo tests adding info messages
func TestAddInfo(t *testing.T) {
	result := NewResult()

	result.AddInfo("INFO_CODE", "This is informational")

	assert.Len(t, result.Messages, 1)
	assert.True(t, result.IsValid())
	assert.True(t, result.CanImport())
	assert.True(t, result.CanPromote())
	assert.Equal(t, 1, result.InfoCount())
}

// TestMultipleMessages tests collecting multiple messages
func TestMultipleMessages(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodeDownstreamMachineOff, "Machine M-12 off indefinitely").
		AddWarning(CodeMissingOperationDef, "Missing definition for PO-4471 seq 2").
		AddInfo("INFO_CODE", "Processing completed with warnings")

	assert.Len(t, result.Messages, 3)
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 1, result.WarningCount())
	assert.Equal(t, 1, result.InfoCount())
	assert.False(t, result.IsValid())
	assert.False(t, result.CanImport())
	assert.False(t, result.CanPromote())
}

// TestMessagesByCode tests filtering messages by code
func TestMessagesByCode(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodePartNotActivated, "PO-1001 has no activation timestamp").
		AddError(CodePartNotActivated, "PO-1002 has no activation timestamp")

	messages := result.MessagesByCode(CodePartNotActivated)

	assert.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Equal(t, CodePartNotActivated, msg.Code)
	}
}

// TestMessagesBySeverity tests filtering messages by severity
func TestMessagesBySeverity(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodeDownstreamMachineOff, "Error 1").
		AddError(CodeDownstreamMachineOff, "Error 2").
		AddWarning(CodeMissingOperationDef, "Warning 1").
		AddInfo("CODE", "Info 1")

	errors := result.MessagesBySeverity(SeverityError)
	warnings := result.MessagesBySeverity(SeverityWarning)
	infos := result.MessagesBySeverity(SeverityInfo)

	assert.Len(t, errors, 2)
	assert.Len(t, warnings, 1)
	assert.Len(t, infos, 1)
}

// TestHasErrorsAndWarnings tests flag methods
func TestHasErrorsAndWarnings(t *testing.T) {
	resultClean := NewResult()
	assert.False(t, resultClean.HasErrors())
	assert.False(t, resultClean.HasWarnings())

	resultWithError := NewResult().AddError("CODE", "Error")
	assert.True(t, resultWithError.HasErrors())
	assert.False(t, resultWithError.HasWarnings())

	resultWithWarning := NewResult().AddWarning("CODE", "Warning")
	assert.False(t, resultWithWarning.HasErrors())
	assert.True(t, resultWithWarning.HasWarnings())

	resultWithBoth := NewResult().
		AddError("ERR", "Error").
		AddWarning("WARN", "Warning")
	assert.True(t, resultWithBoth.HasErrors())
	assert.True(t, resultWithBoth.HasWarnings())
}

// TestWithContext tests messages with additional context
func TestWithContext(t *testing.T) {
	result := NewResult()

	context := map[string]interface{}{
		"part_number":     "PO-4471",
		"operation_seq":   2,
	}

	result.AddErrorWithContext(CodeMissingOperationDef, "Missing operation definition", context)

	assert.Len(t, result.Messages, 1)
	msg := result.Messages[0]
	assert.Equal(t, context, msg.Context)
	assert.Equal(t, "PO-4471", msg.Context["part_number"])
}

// TestToJSON tests JSON serialization
func TestToJSON(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodePartNotActivated, "PO-1001 has no activation timestamp").
		AddWarning(CodeMissingOperationDef, "Missing operation definition")

	json, err := result.ToJSON()

	assert.NoError(t, err)
	assert.NotEmpty(t, json)
	assert.Contains(t, json, "PART_NOT_ACTIVATED")
	assert.Contains(t, json, "MISSING_OPERATION_DEF")
	assert.Contains(t, json, "ERROR")
	assert.Contains(t, json, "WARNING")
}

// TestFromJSON tests JSON deserialization
func TestFromJSON(t *testing.T) {
	original := NewResult()
	original.
		AddError(CodePartNotActivated, "PO-1001 has no activation timestamp").
		AddWarning(CodeMissingOperationDef, "Missing operation definition")

	jsonStr, err := original.ToJSON()
	require.NoError(t, err)

	// Deserialize
	restored, err := FromJSON(jsonStr)
	require.NoError(t, err)

	assert.Len(t, restored.Messages, 2)
	assert.Equal(t, original.ErrorCount(), restored.ErrorCount())
	assert.Equal(t, original.WarningCount(), restored.WarningCount())
}

// TestSummary tests human-readable summary
func TestSummary(t *testing.T) {
	result := NewResult()
	result.
		AddError(CodePartNotActivated, "PO-1001 has no activation timestamp").
		AddWarning(CodeMissingOperationDef, "Missing operation definition").
		AddInfo("INFO", "Done")

	summary := result.Summary()

	assert.Contains(t, summary, "1 errors")
	assert.Contains(t, summary, "1 warnings")
	assert.Contains(t, summary, "1 info")
	assert.Contains(t, summary, "PART_NOT_ACTIVATED")
	assert.Contains(t, summary, "MISSING_OPERATION_DEF")
}

// TestChaining tests method chaining
func TestChaining(t *testing.T) {
	result := NewResult().
		AddError("CODE1", "Error 1").
		AddWarning("CODE2", "Warning 1").
		AddInfo("CODE3", "Info 1")

	assert.Len(t, result.Messages, 3)
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 1, result.WarningCount())
	assert.Equal(t, 1, result.InfoCount())
}

// TestRealWorldExample tests a real-world batch scheduler run with several issues
func TestRealWorldExample(t *testing.T) {
	result := NewResult()

	// Operation definition missing for one part, defaults used
	result.AddWarningWithContext(
		CodeMissingOperationDef,
		"No Operation row found, using setup=30min cycle=5min defaults",
		map[string]interface{}{
			"part_number":     "PO-4471",
			"operation_seq":   2,
		},
	)

	// Part skipped entirely because it was never activated
	result.AddErrorWithContext(
		CodePartNotActivated,
		"Part has no activation timestamp, skipped",
		map[string]interface{}{
			"part_number": "PO-9981",
		},
	)

	// A downstream operation could not be replanned
	result.AddWarning(
		CodeDownstreamMachineOff,
		"Machine M-07 off indefinitely, seq 3 of PO-1102 not replanned",
	)

	// Informational: how many intervals were emitted
	result.AddInfo(
		"INTERVALS_EMITTED",
		"Emitted 42 setup/production intervals",
	)

	// Cannot import due to errors
	assert.False(t, result.CanImport())
	// Cannot promote due to errors and warnings
	assert.False(t, result.CanPromote())
	// Has both errors and warnings
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}
