package mail

import (
	"fmt"
	"strings"

	"github.com/ticketcare/ticketcare/app/models"
)

// SendOrderConfirmation mails the buyer their tickets once payment has been
// reconciled. The order must carry its User, Event and Tickets associations.
func SendOrderConfirmation(order *models.Order) error {
	if order.User == nil || order.User.Email == "" {
		return fmt.Errorf("order %d has no buyer email", order.ID)
	}

	eventTitle := "your event"
	if order.Event != nil {
		eventTitle = order.Event.Title
	}

	var b strings.Builder
	b.WriteString("<h1>Payment received</h1>")
	b.WriteString(fmt.Sprintf("<p>Hi %s,</p>", order.User.Name))
	b.WriteString(fmt.Sprintf("<p>Your order <strong>%s</strong> for <strong>%s</strong> is confirmed.</p>", order.Reference, eventTitle))

	if len(order.Tickets) > 0 {
		b.WriteString("<p>Your ticket codes:</p><ul>")
		for _, ticket := range order.Tickets {
			b.WriteString(fmt.Sprintf("<li><code>%s</code></li>", ticket.Code))
		}
		b.WriteString("</ul>")
	}

	b.WriteString(fmt.Sprintf("<p>Total: %.2f %s</p>", float64(order.TotalAmount)/100.0, order.Currency))

	subject := fmt.Sprintf("Your tickets for %s", eventTitle)
	return SendMail(order.User.Email, subject, b.String())
}
