package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
)

func TestValidateRequest(t *testing.T) {
	valid := model.RunRequest{Positive: 10, Negative: 5, Workers: 2, Corpus: "cui", Formats: []string{"pdf", "eml"}, OutputRoot: "out"}
	require.NoError(t, ValidateRequest(valid))

	noCorpus := valid
	noCorpus.Corpus = ""
	assert.NoError(t, ValidateRequest(noCorpus), "corpus defaults later")

	bad := valid
	bad.Workers = 0
	bad.Negative = -2
	err := ValidateRequest(bad)
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "Workers failed gte")
	assert.Contains(t, err.Error(), "Negative failed gte")
}
