package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/internal/config"
)

func TestInitJaegerWithoutHost(t *testing.T) {
	closer, err := InitJaeger("vdb-test", &config.TracerCfg{SampleType: "const", SampleParam: 1})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())

	closer, err = InitJaeger("vdb-test", nil)
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
