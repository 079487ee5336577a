package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type input struct {
	Name   string
	Repeat int
	hidden bool
}

func TestStructMap(t *testing.T) {
	in := &input{Name: "paste", Repeat: 3, hidden: true}
	assert.Equal(t, map[string]any{"Name": "paste", "Repeat": 3}, StructMap(in))
	assert.Equal(t, StructMap(in), StructMap(*in))
}

func TestRandstring(t *testing.T) {
	s := Randstring(8)
	assert.Len(t, s, 8)
	assert.Regexp(t, "^[a-z]{8}$", s)
}
