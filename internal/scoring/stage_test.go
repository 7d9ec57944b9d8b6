package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		input    string
		expected Stage
	}{
		{"Stage III", 3},
		{"unknown", 1},
		{"", 1},
		{"I", 1},
		{"II", 2},
		{"iii", 3},
		{"IV", 4},
		{"Stage IIIA", 3},
		{"IVb", 4},
		{"Stage 3B", 3},
		{"2", 2},
		{"0", 1},
		{"Stage V", 1},
		{"99999999999999999999999", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStage(tt.input))
		})
	}
}

func TestParseCancerKind(t *testing.T) {
	tests := []struct {
		input    string
		expected CancerKind
	}{
		{"Breast", CancerBreast},
		{"breast cancer", CancerBreast},
		{"  Lung Cancer ", CancerLung},
		{"PANCREATIC", CancerPancreatic},
		{"Colorectal Cancer", CancerColorectal},
		{"Leukemia", CancerOther},
		{"", CancerOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCancerKind(tt.input))
		})
	}

	_, err := ParseKnownCancerKind("Leukemia")
	assert.Error(t, err)
	kind, err := ParseKnownCancerKind("melanoma")
	assert.NoError(t, err)
	assert.Equal(t, CancerMelanoma, kind)
}

func TestDefaultCancerOffsets(t *testing.T) {
	offsets := DefaultCancerOffsets()
	assert.Len(t, offsets, len(KnownCancerKinds))
	assert.Equal(t, -55.0, offsets[CancerPancreatic])
	assert.Equal(t, 28.0, offsets[CancerThyroid])
	assert.Equal(t, 0.0, offsets[CancerOther])
}
