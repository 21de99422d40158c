package vjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	Code int               `json:"code"`
	Msg  string            `json:"msg,omitempty"`
	Data map[string]string `json:"data,omitempty"`
}

func TestJson(t *testing.T) {
	t.Run("Test Marshal struct", func(t *testing.T) {
		output, err := Marshal(&reply{Code: 0, Data: map[string]string{"version": "v3.0.0"}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"code":0,"data":{"version":"v3.0.0"}}`, string(output))
	})

	t.Run("Test Unmarshal struct", func(t *testing.T) {
		r := &reply{}
		require.NoError(t, Unmarshal([]byte(`{"code":3001,"msg":"collection not found: c"}`), r))
		assert.Equal(t, 3001, r.Code)
		assert.Equal(t, "collection not found: c", r.Msg)
	})

	t.Run("Test ToJsonString", func(t *testing.T) {
		assert.Equal(t, `{"code":1}`, ToJsonString(&reply{Code: 1}))
	})
}
