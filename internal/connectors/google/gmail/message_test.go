package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestBuildRaw(t *testing.T) {
	raw, err := BuildRaw("clinic@example.com", []string{"owner@example.com"},
		"SOAP Notes Extraction Report - 6/7/2025", "SUMMARY\n  Notes extracted: 1\n")
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.Contains(t, msg, "From: clinic@example.com")
	assert.Contains(t, msg, "To: owner@example.com")
	assert.Contains(t, msg, "Subject: SOAP Notes Extraction Report - 6/7/2025")
	assert.Contains(t, msg, "Content-Type: text/plain")
	assert.Contains(t, msg, "Notes extracted: 1")
}

func TestNew_RequiresRecipient(t *testing.T) {
	_, err := New(nil, "", nil)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}
