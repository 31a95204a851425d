package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/gharbeti/gharbeti-backend/internal/config"
)

const companyName = "Gharbeti"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #1976D2; margin: 0;">Gharbeti</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>© 2026 Gharbeti. All rights reserved.</p>
		</div>
	</div>
</body>
</html>
`

// Mailer sends transactional e-mail. Construct it once in main and inject
// it; sends are best-effort and callers are expected to run them in a
// goroutine and log failures rather than fail the primary operation.
type Mailer struct {
	cfg     config.SMTPConfig
	baseURL string
}

func NewMailer(cfg config.SMTPConfig, baseURL string) *Mailer {
	return &Mailer{cfg: cfg, baseURL: baseURL}
}

func (m *Mailer) send(to []string, subject, body string) error {
	if m.cfg.From == "" || m.cfg.Password == "" || m.cfg.Host == "" || m.cfg.Port == "" {
		return fmt.Errorf("email configuration not set")
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", companyName, m.cfg.From)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "Gharbeti-Mailer"

	// Build message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email to recipients: %v", to)
	return nil
}

func (m *Mailer) SendBookingRequestEmail(ownerEmail, listingTitle, renterName string) error {
	subject := "New Booking Request - Gharbeti"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">New Booking Request</h1>
					<p>Hello,</p>
					<p><strong>%s</strong> has requested a booking for your property <strong>%s</strong>.</p>
					<p>The request is held for 24 hours. Please log in to confirm or cancel it.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/login" style="background-color: #1976D2; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Review Booking</a>
					</div>
					<p>Best regards,<br>The Gharbeti Team</p>
				</div>`+emailFooter,
		renterName, listingTitle, m.baseURL)

	return m.send([]string{ownerEmail}, subject, body)
}

func (m *Mailer) SendBookingConfirmedEmail(renterEmail, listingTitle string) error {
	subject := "Booking Confirmed - Gharbeti"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Confirmed</h1>
					<p>Hello,</p>
					<p>Great news! Your booking for <strong>%s</strong> has been confirmed by the owner.</p>
					<p>You can now complete the payment from your bookings page.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/my-bookings" style="background-color: #1976D2; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Pay Now</a>
					</div>
					<p>Best regards,<br>The Gharbeti Team</p>
				</div>`+emailFooter,
		listingTitle, m.baseURL)

	return m.send([]string{renterEmail}, subject, body)
}

func (m *Mailer) SendBookingCancelledEmail(renterEmail, listingTitle string) error {
	subject := "Booking Cancelled - Gharbeti"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Cancelled</h1>
					<p>Hello,</p>
					<p>Your booking for <strong>%s</strong> has been cancelled.</p>
					<p>You can browse other available properties at any time.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/listings" style="background-color: #1976D2; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Browse Listings</a>
					</div>
					<p>Best regards,<br>The Gharbeti Team</p>
				</div>`+emailFooter,
		listingTitle, m.baseURL)

	return m.send([]string{renterEmail}, subject, body)
}

func (m *Mailer) SendPaymentReceiptEmail(renterEmail, listingTitle string, amount float64, method string) error {
	subject := "Payment Received - Gharbeti"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Payment Received</h1>
					<p>Hello,</p>
					<p>We received your payment of <strong>NPR %.2f</strong> via <strong>%s</strong> for <strong>%s</strong>.</p>
					<p>Your booking is now fully settled.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/my-bookings" style="background-color: #1976D2; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">View Booking</a>
					</div>
					<p>Best regards,<br>The Gharbeti Team</p>
				</div>`+emailFooter,
		amount, method, listingTitle, m.baseURL)

	return m.send([]string{renterEmail}, subject, body)
}

func (m *Mailer) SendKYCDecisionEmail(userEmail string, approved bool, note string) error {
	decision := "approved"
	if !approved {
		decision = "rejected"
	}
	subject := "KYC Verification Update - Gharbeti"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">KYC Verification Update</h1>
					<p>Hello,</p>
					<p>Your identity verification has been <strong>%s</strong>.</p>
					<p>%s</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/profile" style="background-color: #1976D2; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">View Profile</a>
					</div>
					<p>Best regards,<br>The Gharbeti Team</p>
				</div>`+emailFooter,
		decision, note, m.baseURL)

	return m.send([]string{userEmail}, subject, body)
}
