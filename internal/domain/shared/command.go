package shared

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CommandType identifies the orchestrator operation a LedgerCommand asks for.
type CommandType string

const (
	CommandCreateWithLedger  CommandType = "CREATE_TRANSACTION_WITH_LEDGER"
	CommandInsertTransaction CommandType = "INSERT_TRANSACTION"
	CommandCreateOneOff      CommandType = "CREATE_ONE_OFF_LEDGER"
)

var ErrUnknownCommandType = errors.New("unknown command type")

// LedgerCommand is the Kafka envelope published by the API and consumed by the
// processor. Exactly one payload is set, matching Type.
type LedgerCommand struct {
	Type             CommandType                         `json:"type"`
	CorrelationID    string                              `json:"correlation_id"`
	CreateWithLedger *CreateTransactionWithLedgerRequest `json:"create_with_ledger,omitempty"`
	Insert           *InsertTransactionRequest           `json:"insert,omitempty"`
	OneOff           *CreateOneOffLedgerRequest          `json:"one_off,omitempty"`
}

// PaymentAccountID returns the account the command targets; it doubles as the
// Kafka partition key so commands for one account are applied in order.
func (c *LedgerCommand) PaymentAccountID() string {
	switch {
	case c.CreateWithLedger != nil:
		return c.CreateWithLedger.PaymentAccountID
	case c.Insert != nil:
		return c.Insert.PaymentAccountID
	case c.OneOff != nil:
		return c.OneOff.PaymentAccountID
	}
	return ""
}

// IdempotencyKey returns the caller key of the wrapped request.
func (c *LedgerCommand) IdempotencyKey() string {
	switch {
	case c.CreateWithLedger != nil:
		return c.CreateWithLedger.IdempotencyKey
	case c.Insert != nil:
		return c.Insert.IdempotencyKey
	case c.OneOff != nil:
		return c.OneOff.IdempotencyKey
	}
	return ""
}

// Validate checks that the payload matches Type and is itself valid.
func (c *LedgerCommand) Validate() error {
	switch c.Type {
	case CommandCreateWithLedger:
		if c.CreateWithLedger == nil {
			return fmt.Errorf("%s command without payload", c.Type)
		}
		return c.CreateWithLedger.Validate()
	case CommandInsertTransaction:
		if c.Insert == nil {
			return fmt.Errorf("%s command without payload", c.Type)
		}
		return c.Insert.Validate()
	case CommandCreateOneOff:
		if c.OneOff == nil {
			return fmt.Errorf("%s command without payload", c.Type)
		}
		return c.OneOff.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommandType, c.Type)
	}
}

// DecodeLedgerCommand unmarshals a command message body. Payload validation is left
// to the caller so invalid commands can be recorded rather than dead-lettered.
func DecodeLedgerCommand(data []byte) (*LedgerCommand, error) {
	var cmd LedgerCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger command: %w", err)
	}
	return &cmd, nil
}
