package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
)

func newTestSigning(t *testing.T, docs *fakeNoteDocs, assets driven.SignatureAssets) *SigningService {
	t.Helper()
	attributor := NewClinicianAttributor(testDirectory(t), DefaultAttributionLines)
	return NewSigningService(docs, assets, attributor, SigningConfig{Retry: noRetry()})
}

func TestIsSigned(t *testing.T) {
	assert.True(t, IsSigned("note\n\nTherapist: Catie Stevens  NPI: 1962211730"))
	assert.False(t, IsSigned("Therapist: Catie Stevens"))
	assert.False(t, IsSigned("NPI: 123"))
	assert.False(t, IsSigned(""))
}

func TestSignatureBlock(t *testing.T) {
	assert.Equal(t, "\n\nTherapist: Catie Stevens  NPI: 1962211730", SignatureBlock(catie))
}

func TestSigningService_SignPending(t *testing.T) {
	docs := &fakeNoteDocs{
		docs: []domain.SignableDocument{
			{ID: "d1", Name: "Jane Doe note"},
			{ID: "d2", Name: "Ana Lopez note"},
			{ID: "d3", Name: "Bob Stone note"},
			{ID: "d4", Name: "Missing"},
		},
		text: map[string]string{
			"d1": "S: shoulder pain\n6/6/25 CS 60 min\nO: tension",
			"d2": "LG\nnotes\n\nTherapist: Lili Gutierrez  NPI: 1982482113",
			"d3": "S: nothing to attribute\nfollow up next week",
		},
	}
	assets := fakeAssets{"Catie.jpg": "https://drive.google.com/uc?id=sig-1"}

	svc := newTestSigning(t, docs, assets)
	summary, err := svc.SignPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Signed)
	assert.Equal(t, 1, summary.AlreadySigned)
	assert.Equal(t, 1, summary.Unattributed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 4)
	assert.Equal(t, "Catie Stevens", summary.Results[0].Clinician)

	assert.Equal(t, SignatureBlock(catie), docs.appended["d1"])
	require.NotNil(t, docs.images["d1"])
	assert.Equal(t, "https://drive.google.com/uc?id=sig-1", docs.images["d1"].URI)
	assert.EqualValues(t, SignatureWidthPoints, docs.images["d1"].WidthPoints)
	assert.NotContains(t, docs.appended, "d2")
	assert.NotContains(t, docs.appended, "d3")
}

func TestSigningService_IsIdempotent(t *testing.T) {
	docs := &fakeNoteDocs{
		docs: []domain.SignableDocument{{ID: "d1", Name: "Jane Doe note"}},
		text: map[string]string{"d1": "Catie\nsession notes"},
	}
	svc := newTestSigning(t, docs, nil)

	first, err := svc.SignPending(context.Background())
	require.NoError(t, err)
	second, err := svc.SignPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Signed)
	assert.Equal(t, 1, second.AlreadySigned)
	assert.Equal(t, SignatureBlock(catie), docs.appended["d1"], "signature appended once")
}

func TestSigningService_MissingSignatureAssetSignsTextOnly(t *testing.T) {
	docs := &fakeNoteDocs{
		docs: []domain.SignableDocument{{ID: "d1", Name: "note"}},
		text: map[string]string{"d1": "MM\nnotes"},
	}
	svc := newTestSigning(t, docs, fakeAssets{})

	summary, err := svc.SignPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Signed)
	assert.Nil(t, docs.images["d1"])
	assert.Equal(t, SignatureBlock(marco), docs.appended["d1"])
}

func TestSigningService_AppendFailureIsPerDocument(t *testing.T) {
	docs := &fakeNoteDocs{
		docs:      []domain.SignableDocument{{ID: "d1", Name: "a"}, {ID: "d2", Name: "b"}},
		text:      map[string]string{"d1": "CS\nnotes", "d2": "LG\nnotes"},
		appendErr: errors.New("quota exceeded"),
	}
	svc := newTestSigning(t, docs, nil)

	summary, err := svc.SignPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, "quota exceeded", summary.Results[0].Err)
}

func TestSigningService_CancelledContext(t *testing.T) {
	docs := &fakeNoteDocs{
		docs: []domain.SignableDocument{{ID: "d1", Name: "a"}},
		text: map[string]string{"d1": "CS\nnotes"},
	}
	svc := newTestSigning(t, docs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SignPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, docs.appended)
}
