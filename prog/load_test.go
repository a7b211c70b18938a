package prog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	r := NewReader(strings.NewReader("3 5 2\n"))
	procs, quantum, nodes, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, 3, procs)
	assert.Equal(t, 5, quantum)
	assert.Equal(t, 2, nodes)
}

func TestHeaderErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"1 2\n",
		"1 2 3 4\n",
		"one 2 3\n",
		"1 0 3\n", // quantum below 1
		"1 2 0\n", // no nodes
	} {
		r := NewReader(strings.NewReader(in))
		_, _, _, err := r.Header()
		assert.Error(t, err, "input %q", in)
	}
}

func TestLoad(t *testing.T) {
	const in = `
A 0 1
DOOP 3
LOOP 2
BLOCK 1
END
HALT

B -1 2
SEND 201
HALT
`
	r := NewReader(strings.NewReader(in))

	a, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, 0, a.Priority)
	assert.Equal(t, 1, a.NodeID)
	assert.Equal(t, -1, a.IP)
	assert.Equal(t, []Opcode{
		{OpDoop, 3}, {OpLoop, 2}, {OpBlock, 1}, {OpEnd, 0}, {OpHalt, 0},
	}, a.Code)

	b, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, "B", b.Name)
	assert.Equal(t, -1, b.Priority)
	assert.Equal(t, 2, b.NodeID)
	assert.Equal(t, []Opcode{{OpSend, 201}, {OpHalt, 0}}, b.Code)
}

func TestLoadErrors(t *testing.T) {
	for name, in := range map[string]string{
		"truncated":       "A 0 1\nDOOP 3\n",
		"unknown opcode":  "A 0 1\nNOOP 3\nHALT\n",
		"missing arg":     "A 0 1\nDOOP\nHALT\n",
		"bad arg":         "A 0 1\nDOOP x\nHALT\n",
		"negative arg":    "A 0 1\nDOOP -1\nHALT\n",
		"bad priority":    "A x 1\nHALT\n",
		"bad node":        "A 0 0\nHALT\n",
		"short header":    "A 0\nHALT\n",
		"name too long":   "ABCDEFGHIJK 0 1\nHALT\n",
		"stray end":       "A 0 1\nEND\nHALT\n",
		"unclosed loop":   "A 0 1\nLOOP 2\nDOOP 1\nHALT\n",
		"negative repeat": "A 0 1\nLOOP -2\nDOOP 1\nEND\nHALT\n",
	} {
		r := NewReader(strings.NewReader(in))
		_, err := r.Load()
		assert.Error(t, err, "case %s", name)
	}
}
