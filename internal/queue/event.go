// Package queue moves work off the request path: OTP mails travel over a
// durable RabbitMQ queue and activity events over a Kafka topic.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/connecthub/internal/model"
)

// OTPMailRequested is the message body of the OTP mail queue.
type OTPMailRequested struct {
	model.OTPMail
	Attempt int `json:"attempt,omitempty"`
}

// decodeOTPMail parses and checks one queue message.
func decodeOTPMail(body []byte) (model.OTPMail, error) {
	var ev OTPMailRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return model.OTPMail{}, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.To == "" || ev.Code == "" {
		return model.OTPMail{}, fmt.Errorf("incomplete otp mail event")
	}
	return ev.OTPMail, nil
}
