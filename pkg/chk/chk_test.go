package chk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	// one block size at every tree level
	assert.Equal(t, LeafSize, FanOut*RecordSize)
	assert.Equal(t, 128, RecordSize)
}

func TestRecordAppendTo(t *testing.T) {
	var rec Record
	for i := range rec.Key {
		rec.Key[i] = byte(i)
		rec.Query[i] = byte(i + 1)
	}

	buf := rec.AppendTo([]byte{0xEE})
	assert.Len(t, buf, 1+RecordSize)
	assert.Equal(t, byte(0xEE), buf[0])
	assert.Equal(t, rec.Key[:], buf[1:1+KeySize])
	assert.Equal(t, rec.Query[:], buf[1+KeySize:])
}
