package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(&buf))
	assert.Contains(t, buf.String(), "RAG2F")
	assert.Contains(t, buf.String(), "rag2f manual")
}
