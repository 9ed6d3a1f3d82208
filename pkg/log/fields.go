package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Engagement domain
	FieldContentID     = "content_id"
	FieldInteractionID = "interaction_id"
	FieldRecipientID   = "recipient_id"
	FieldRoute         = "route"
)
