package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	const workload = `1 5 1
A 0 1
DOOP 3
HALT
`
	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(workload), &out, nil))

	assert.Equal(t, `[01] 00000: process 1 new
[01] 00000: process 1 ready
[01] 00000: process 1 running
[01] 00003: process 1 finished
[01] process 1 (A) finished at 00003
     doop 1 ops 3 ticks, block 0 ops 0 ticks, wait 1 times 0 ticks, sent 0, received 0
`, out.String())
}

func TestRunBadHeader(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("not a header\n"), &out, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
	assert.Empty(t, out.String(), "no partial state observable on input errors")
}

func TestRunBadProcess(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("1 5 1\nA 0 1\nNOOP 3\nHALT\n"), &out, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load")
	assert.Empty(t, out.String())
}
