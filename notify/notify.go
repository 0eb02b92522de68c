// Package notify sends order SMS messages to customers.
package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"feastfleet/models"

	"github.com/sirupsen/logrus"
)

const DefaultCountryCode = "+91"

// Result is reported back to the caller; sending never fails an operation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Sender delivers one text message and returns the provider's message id
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type Notifier struct {
	sender      Sender
	countryCode string
	log         logrus.FieldLogger
}

// New returns a Notifier. A nil sender means no credentials were configured:
// every message is skipped with a warning.
func New(sender Sender, countryCode string, log logrus.FieldLogger) *Notifier {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Notifier{sender: sender, countryCode: countryCode, log: log}
}

// FormatPhone turns a local number into E.164 by keeping its digits and
// prefixing countryCode. Numbers that already start with '+' are returned
// as they are.
func FormatPhone(raw, countryCode string) string {
	if strings.HasPrefix(raw, "+") {
		return raw
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	return countryCode + digits
}

// Send formats to and delivers body
func (n *Notifier) Send(ctx context.Context, to, body string) Result {
	if n.sender == nil {
		n.log.Warn("SMS credentials not found, notification not sent")
		return Result{Success: false, Message: "SMS credentials not configured"}
	}
	phone := FormatPhone(to, n.countryCode)
	sid, err := n.sender.Send(ctx, phone, body)
	if err != nil {
		n.log.WithError(err).WithField("to", phone).Error("failed to send SMS")
		return Result{Success: false, Message: "Error: " + err.Error()}
	}
	return Result{Success: true, Message: "SMS sent successfully. SID: " + sid}
}

func (n *Notifier) OrderConfirmed(ctx context.Context, order models.Order, user models.User) Result {
	if r, skip := optedOut(user); skip {
		return r
	}
	return n.Send(ctx, user.Phone, ConfirmationMessage(order, user))
}

func (n *Notifier) StatusChanged(ctx context.Context, order models.Order, user models.User, status models.OrderStatus) Result {
	if r, skip := optedOut(user); skip {
		return r
	}
	return n.Send(ctx, user.Phone, StatusMessage(order, user, status))
}

func optedOut(user models.User) (Result, bool) {
	if user.NotificationSettings != nil && !user.NotificationSettings.SMS {
		return Result{Success: false, Message: "SMS notifications disabled by user"}, true
	}
	return Result{}, false
}

func ConfirmationMessage(order models.Order, user models.User) string {
	return fmt.Sprintf("Hi %s, your order #%s from %s has been confirmed and will be delivered in approximately %s. "+
		"Track your order in real-time on our app. Thank you!",
		user.Name, order.ID, order.RestaurantName, order.ETA)
}

func StatusMessage(order models.Order, user models.User, status models.OrderStatus) string {
	switch status {
	case models.StatusPreparing:
		return fmt.Sprintf("Hi %s, your order #%s from %s is now being prepared. We'll notify you when it's on the way!",
			user.Name, order.ID, order.RestaurantName)
	case models.StatusOutForDelivery:
		return fmt.Sprintf("Hi %s, your order #%s from %s is on the way! Estimated delivery time: %s. "+
			"Track it in real-time on our app.",
			user.Name, order.ID, order.RestaurantName, order.ETA)
	case models.StatusDelivered:
		return fmt.Sprintf("Hi %s, your order #%s from %s has been delivered. Enjoy your meal! "+
			"Please rate your experience on our app.",
			user.Name, order.ID, order.RestaurantName)
	case models.StatusCancelled:
		return fmt.Sprintf("Hi %s, we're sorry to inform you that your order #%s from %s has been cancelled. "+
			"Please check the app for details.",
			user.Name, order.ID, order.RestaurantName)
	default:
		return fmt.Sprintf("Hi %s, there's an update on your order #%s from %s. Status: %s. Check the app for details.",
			user.Name, order.ID, order.RestaurantName, status)
	}
}
