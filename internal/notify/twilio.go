package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type TwilioGateway struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

func NewTwilioGateway(accountSID, authToken, from string, logger *zap.Logger) (*TwilioGateway, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio credentials are not configured")
	}
	if from == "" {
		return nil, errors.New("twilio phone number is not configured")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioGateway{client: client, from: from, logger: logger}, nil
}

// Send issues the API call on its own goroutine so that a hung request is
// abandoned once ctx expires.
func (g *TwilioGateway) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(g.from)
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)

	go func() {
		resp, err := g.client.Api.CreateMessage(params)
		if err != nil {
			done <- result{err: err}
			return
		}
		var sid string
		if resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send sms to %s: %w", to, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("send sms to %s: %w", to, r.err)
		}
		g.logger.Info("sms sent", zap.String("to", to), zap.String("sid", r.sid))
		return nil
	}
}
