package log

import (
	"bytes"
	golog "log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("WARN")
	assert.True(t, ok)
	assert.Equal(t, WARN, l)

	l, ok = ParseLevel("")
	assert.True(t, ok)
	assert.Equal(t, INFO, l)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestGoLogLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	Regist(NewGoLog(golog.New(buf, "", 0), WARN))
	defer Regist(std)

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	Error("failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
	assert.Contains(t, out, "[ERROR] failed")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "plain", Format("plain"))
	format := "collection:[%s] rows:[%d]"
	assert.Equal(t, "collection:[a] rows:[3]", Format(format, "a", 3))
	assert.Equal(t, "1 2", Format(1, 2))
}
