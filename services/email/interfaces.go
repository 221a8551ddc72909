package email

// EmailSender is implemented by the SMTP service; the worker depends on this
// interface so tests can swap in a recorder.
type EmailSender interface {
    SendEmail(to, subject, body string) error
    SendOrderConfirmationEmail(to, name, orderNumber, total string) error
    SendOrderStatusEmail(to, name, orderNumber, status string) error
}
