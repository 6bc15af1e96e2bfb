package services

import (
	"fmt"
	"strings"
	"time"

	"creditdesk/config"
	"creditdesk/models"

	"gopkg.in/gomail.v2"
)

// Notifier уведомляет клиента о событиях по кредиту.
// Вызывается после фиксации транзакции; ошибки только логируются.
type Notifier interface {
	CreditApproved(credit *models.Credit, schedule *Schedule) error
	CreditPaid(credit *models.Credit) error
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) CreditApproved(*models.Credit, *Schedule) error { return nil }
func (NopNotifier) CreditPaid(*models.Credit) error                { return nil }

// NewNotifier возвращает EmailService, если SMTP включен, иначе NopNotifier
func NewNotifier(cfg *config.Config) Notifier {
	if !cfg.SMTP.Enabled {
		return NopNotifier{}
	}
	return NewEmailService(cfg)
}

// sender отправляет готовые сообщения
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer sender
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("не указан адрес получателя")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// CreditApproved отправляет клиенту график платежей одобренного кредита
func (s *EmailService) CreditApproved(credit *models.Credit, schedule *Schedule) error {
	subject := fmt.Sprintf("Credit #%d approved", credit.ID)
	return s.SendEmail(credit.Client.Email, subject, approvedBody(credit, schedule))
}

// CreditPaid отправляет уведомление о погашении кредита
func (s *EmailService) CreditPaid(credit *models.Credit) error {
	subject := fmt.Sprintf("Credit #%d paid", credit.ID)
	body := fmt.Sprintf(`
		<h2>Credit paid</h2>
		<p>Dear %s,</p>
		<p>All installments of your credit #%d "%s" have been received.</p>
		<p>Date: %s</p>
	`, credit.Client.String(), credit.ID, credit.Description, time.Now().Format("02.01.2006"))

	return s.SendEmail(credit.Client.Email, subject, body)
}

func approvedBody(credit *models.Credit, schedule *Schedule) string {
	var rows strings.Builder
	for i, p := range sortedPayments(schedule.Payments) {
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			i+1, formatDate(p.PaymentDate), formatDate(p.DueDate), p.PaymentAmount.StringFixed(2))
	}

	return fmt.Sprintf(`
		<h2>Credit approved</h2>
		<p>Dear %s,</p>
		<p>Your credit #%d "%s" for %s has been approved.</p>
		<p>Installments: %d, from %s to %s.</p>
		<table>
		<tr><th>#</th><th>Payment date</th><th>Due date</th><th>Amount</th></tr>
		%s</table>
	`, credit.Client.String(), credit.ID, credit.Description, credit.TotalAmount.StringFixed(2),
		len(schedule.Payments), formatDate(schedule.StartDate), formatDate(schedule.EndDate), rows.String())
}
