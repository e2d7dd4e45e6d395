// Package lib groups integrations that sit outside the request path:
// background jobs (asynq) and transactional email (Resend).
package lib
