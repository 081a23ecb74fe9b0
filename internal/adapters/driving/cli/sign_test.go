package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestSignCmd_Use(t *testing.T) {
	assert.Equal(t, "sign", signCmd.Use)
	assert.Equal(t, "Sign finished notes for the treating clinician", signCmd.Short)
}

func TestSignCmd_PrintsSummary(t *testing.T) {
	summary := &domain.SigningSummary{}
	summary.Add(domain.SigningResult{Name: "Jane Doe", Clinician: "Gemma Hernandez", Status: domain.SigningSigned})
	summary.Add(domain.SigningResult{Name: "John Roe", Status: domain.SigningUnattributed})
	summary.Add(domain.SigningResult{Name: "Old Note", Status: domain.SigningAlreadySigned})
	setupCLITest(t, &Services{Signer: &mockSigner{summary: summary}})

	out, err := execute(t, "sign")

	require.NoError(t, err)
	assert.Contains(t, out, "signed        Jane Doe (Gemma Hernandez)")
	assert.Contains(t, out, "unattributed  John Roe")
	assert.NotContains(t, out, "Old Note")
	assert.Contains(t, out, "Signed 1, already signed 1, unattributed 1, failed 0.")
}

func TestSignCmd_Error(t *testing.T) {
	setupCLITest(t, &Services{Signer: &mockSigner{err: domain.ErrAuthInvalid}})

	_, err := execute(t, "sign")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthInvalid))
}
