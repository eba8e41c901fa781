package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintLine(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printLine(&out, []byte(`{"type":"catalog.ready"}`), false, "catalog.item_deleted"))
	assert.Empty(t, out.String())

	require.NoError(t, printLine(&out, []byte(`{"type":"catalog.item_deleted","id":"p1"}`), true, "catalog.item_deleted"))
	assert.Contains(t, out.String(), "\n  \"id\": \"p1\"")

	out.Reset()
	require.NoError(t, printLine(&out, []byte(`hello`), true, ""))
	assert.Equal(t, "hello\n", out.String())
}
