package emailservice

// Тип письма
type MessageType string

const (
	TypeBookingConfirmation MessageType = "booking_confirmation"
	TypeBookingCancellation MessageType = "booking_cancellation"
	TypePasswordSetup       MessageType = "password_setup"
	TypeTierUpgrade         MessageType = "tier_upgrade"
)

// Message письмо для отправки по шаблону
type Message struct {
	Type         MessageType            `json:"type"`
	To           string                 `json:"to"`
	From         string                 `json:"from,omitempty"`
	TemplateData map[string]interface{} `json:"template_data"`
}

func (m Message) validate() error {
	if m.Type == "" || m.To == "" {
		return ErrInvalidMessage
	}
	return nil
}
