package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskWelcome = "email:welcome"

// welcomeRetention keeps the completed task id around so a repeated
// registration cannot queue a second welcome email.
const welcomeRetention = 7 * 24 * time.Hour

type WelcomeEmailPayload struct {
	UserID    string `json:"user_id"`
	To        string `json:"to"`
	FirstName string `json:"first_name"`
}

func (p WelcomeEmailPayload) validate() error {
	if p.UserID == "" || p.To == "" {
		return errors.New("welcome email payload needs user_id and to")
	}
	return nil
}

// NewWelcomeEmailTask builds the task; its id is derived from the user so
// duplicates are rejected by the queue.
func NewWelcomeEmailTask(p WelcomeEmailPayload) (*asynq.Task, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TaskWelcome, err)
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.TaskID(TaskWelcome+":"+p.UserID),
		asynq.MaxRetry(5),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
		asynq.Retention(welcomeRetention),
	), nil
}
