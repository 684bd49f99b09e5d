package types

// Event names published after committed mutations
const (
	WebhookEventInvoiceCreated         = "invoice.created"
	WebhookEventInvoicePaymentRecorded = "invoice.payment.recorded"
)
