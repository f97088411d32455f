package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentsAppendUpTo(t *testing.T) {
	current := Attachments{{FileName: "a.pdf"}}
	add := Attachments{{FileName: "b.pdf"}, {FileName: "c.pdf"}}

	next, n := current.AppendUpTo(add, 2)
	assert.Equal(t, 1, n)
	require.Len(t, next, 2)
	assert.Equal(t, "b.pdf", next[1].FileName)
	assert.Len(t, current, 1)

	full, n := next.AppendUpTo(add, 2)
	assert.Zero(t, n)
	assert.Len(t, full, 2)

	unbounded, n := current.AppendUpTo(add, 0)
	assert.Equal(t, 2, n)
	assert.Len(t, unbounded, 3)
}

func TestAttachmentsWithout(t *testing.T) {
	current := Attachments{{FileName: "a.pdf"}, {FileName: "b.pdf"}, {FileName: "c.pdf"}}

	next, err := current.Without(1)
	require.NoError(t, err)
	assert.Equal(t, Attachments{{FileName: "a.pdf"}, {FileName: "c.pdf"}}, next)
	assert.Equal(t, "b.pdf", current[1].FileName)

	_, err = current.Without(3)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	_, err = current.Without(-1)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}
