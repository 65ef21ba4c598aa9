package asynq

import (
	"testing"

	"nodemonitor/pkg/notification"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverTaskRoundTrip(t *testing.T) {
	msg := &notification.Message{
		UserID:      "u1",
		Kind:        notification.KindLowBalance,
		Title:       "🟡 CRITICAL: LOW SOL BALANCE",
		Body:        "Current Balance: *0.004 SOL*",
		NodeAddress: "addr",
	}

	task, err := NewDeliverTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TypeNotificationDeliver, task.Type())

	got, err := ParseDeliverTask(task)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestParseDeliverTask_Malformed(t *testing.T) {
	_, err := ParseDeliverTask(asynq.NewTask(TypeNotificationDeliver, []byte("{")))
	assert.Error(t, err)
}
