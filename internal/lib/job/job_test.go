package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	to, firstName string
	err           error
	calls         int
}

func (f *fakeSender) SendWelcomeEmail(_ context.Context, to, firstName string) error {
	f.calls++
	f.to, f.firstName = to, firstName
	return f.err
}

func newTestJobService(sender WelcomeSender) *JobService {
	l := zerolog.Nop()
	return &JobService{logger: &l, emails: sender}
}

var adaPayload = WelcomeEmailPayload{UserID: "user_1", To: "ada@example.com", FirstName: "Ada"}

func TestNewWelcomeEmailTask(t *testing.T) {
	task, err := NewWelcomeEmailTask(adaPayload)
	require.NoError(t, err)
	assert.Equal(t, TaskWelcome, task.Type())

	var p WelcomeEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, adaPayload, p)
}

func TestNewWelcomeEmailTask_RequiresRecipient(t *testing.T) {
	_, err := NewWelcomeEmailTask(WelcomeEmailPayload{UserID: "user_1"})
	assert.Error(t, err)
}

func TestMux_DispatchesWelcomeEmail(t *testing.T) {
	sender := &fakeSender{}
	j := newTestJobService(sender)

	task, err := NewWelcomeEmailTask(adaPayload)
	require.NoError(t, err)

	require.NoError(t, j.Mux().ProcessTask(context.Background(), task))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "ada@example.com", sender.to)
	assert.Equal(t, "Ada", sender.firstName)
}

func TestHandleWelcomeEmail_SendFailureIsRetried(t *testing.T) {
	sender := &fakeSender{err: errors.New("resend: 500")}
	j := newTestJobService(sender)

	task, err := NewWelcomeEmailTask(adaPayload)
	require.NoError(t, err)

	err = j.handleWelcomeEmailTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleWelcomeEmail_BadPayloadSkipsRetry(t *testing.T) {
	sender := &fakeSender{}
	j := newTestJobService(sender)

	for _, payload := range []string{"{", `{"to":"ada@example.com"}`} {
		err := j.handleWelcomeEmailTask(context.Background(), asynq.NewTask(TaskWelcome, []byte(payload)))
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	}
	assert.Zero(t, sender.calls)
}
