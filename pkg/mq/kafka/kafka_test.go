package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithoutProducerReturnsError(t *testing.T) {
	require.Nil(t, getDefaultProducer())

	// producer未初始化时发送要报错而不是崩溃
	assert.NotPanics(t, func() {
		assert.ErrorIs(t, SendMessage("detections", []byte("{}")), ErrProducerNotReady)
		assert.ErrorIs(t, SendMessageWithKey("detections", "addr", []byte("{}")), ErrProducerNotReady)
	})

	assert.NoError(t, CloseProducer())
}
