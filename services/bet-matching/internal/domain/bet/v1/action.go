package betv1

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
)

// ActionKind names an inbound action.
type ActionKind string

const (
	// ActionNewLimitBet places a limit bet.
	ActionNewLimitBet ActionKind = "NEW_LIMIT_BET"
	// ActionNewMarketBet places a market bet.
	ActionNewMarketBet ActionKind = "NEW_MARKET_BET"
	// ActionInactiveEvent closes an event and purges both of its books.
	ActionInactiveEvent ActionKind = "INACTIVE_EVENT"
	// ActionCancelBet removes a resting bet.
	ActionCancelBet ActionKind = "CANCEL_BET"
)

// Action is one decoded inbound action. The concrete type is one of
// *LimitBet, *MarketBet, *CancelBet, *InactiveEvent or *UnknownAction.
type Action interface {
	Kind() ActionKind
	Event() string
}

// Envelope is the wire form of an inbound action.
type Envelope struct {
	Action ActionKind      `json:"action"`
	Value  json.RawMessage `json:"value"`
}

// LimitBet carries an explicit price and rests on the book if unfilled.
type LimitBet struct {
	EventID      string   `json:"event_id" validate:"required"`
	Sport        string   `json:"sport" validate:"required"`
	BetID        *int64   `json:"bet_id" validate:"required"`
	BrokerageID  *int64   `json:"brokerage_id" validate:"required"`
	UserID       *int64   `json:"user_id" validate:"required"`
	Amount       *float64 `json:"amount" validate:"required,gt=0"`
	Odds         *int     `json:"odds" validate:"required,american_odds"`
	OrderType    string   `json:"order_type"`
	OnTeamAbbrev string   `json:"on_team_abbrev" validate:"required"`
}

// Kind implements Action.
func (*LimitBet) Kind() ActionKind { return ActionNewLimitBet }

// Event implements Action.
func (b *LimitBet) Event() string { return b.EventID }

// Order normalizes the bet.
func (b *LimitBet) Order() Order {
	return Order{
		EventID:     b.EventID,
		Sport:       b.Sport,
		BetID:       *b.BetID,
		BrokerageID: *b.BrokerageID,
		UserID:      *b.UserID,
		Amount:      *b.Amount,
		Price:       *b.Odds,
		Side:        b.OnTeamAbbrev,
	}
}

// NewLimitBet rebuilds the limit bet whose remaining state is order.
func NewLimitBet(order Order) *LimitBet {
	amount, odds := order.Amount, order.Price
	betID, brokerageID, userID := order.BetID, order.BrokerageID, order.UserID
	return &LimitBet{
		EventID:      order.EventID,
		Sport:        order.Sport,
		BetID:        &betID,
		BrokerageID:  &brokerageID,
		UserID:       &userID,
		Amount:       &amount,
		Odds:         &odds,
		OrderType:    "LIMIT",
		OnTeamAbbrev: order.Side,
	}
}

// MarketBet takes whatever price the opposing book offers and fills completely or not at all.
type MarketBet struct {
	EventID      string   `json:"event_id" validate:"required"`
	Sport        string   `json:"sport" validate:"required"`
	BetID        *int64   `json:"bet_id" validate:"required"`
	BrokerageID  *int64   `json:"brokerage_id" validate:"required"`
	UserID       *int64   `json:"user_id" validate:"required"`
	Amount       *float64 `json:"amount" validate:"required,gt=0"`
	OrderType    string   `json:"order_type"`
	OnTeamAbbrev string   `json:"on_team_abbrev" validate:"required"`
}

// Kind implements Action.
func (*MarketBet) Kind() ActionKind { return ActionNewMarketBet }

// Event implements Action.
func (b *MarketBet) Event() string { return b.EventID }

// Order normalizes the bet. Market orders carry no price.
func (b *MarketBet) Order() Order {
	return Order{
		EventID:     b.EventID,
		Sport:       b.Sport,
		BetID:       *b.BetID,
		BrokerageID: *b.BrokerageID,
		UserID:      *b.UserID,
		Amount:      *b.Amount,
		Side:        b.OnTeamAbbrev,
	}
}

// CancelBet identifies a resting bet by side, original price and bet id.
type CancelBet struct {
	EventID      string `json:"event_id" validate:"required"`
	Sport        string `json:"sport" validate:"required"`
	BetID        *int64 `json:"bet_id" validate:"required"`
	BrokerageID  *int64 `json:"brokerage_id" validate:"required"`
	UserID       *int64 `json:"user_id" validate:"required"`
	Odds         *int   `json:"odds" validate:"required,american_odds"`
	OnTeamAbbrev string `json:"on_team_abbrev" validate:"required"`
}

// Kind implements Action.
func (*CancelBet) Kind() ActionKind { return ActionCancelBet }

// Event implements Action.
func (b *CancelBet) Event() string { return b.EventID }

// Order returns the lookup key of the bet to cancel. Amount is unknown until
// the resting order is found.
func (b *CancelBet) Order() Order {
	return Order{
		EventID:     b.EventID,
		Sport:       b.Sport,
		BetID:       *b.BetID,
		BrokerageID: *b.BrokerageID,
		UserID:      *b.UserID,
		Price:       *b.Odds,
		Side:        b.OnTeamAbbrev,
	}
}

// InactiveEvent reports that an event has ended or been withdrawn.
type InactiveEvent struct {
	EventID           string  `json:"event_id" validate:"required"`
	Sport             string  `json:"sport" validate:"required"`
	HomeTeamAbbrev    string  `json:"home_team_abbrev" validate:"required"`
	AwayTeamAbbrev    string  `json:"away_team_abbrev" validate:"required"`
	HomeTeamName      string  `json:"home_team_name"`
	AwayTeamName      string  `json:"away_team_name"`
	HomeTeamScore     *int    `json:"home_team_score"`
	AwayTeamScore     *int    `json:"away_team_score"`
	WinningTeamAbbrev *string `json:"winning_team_abbrev"`
	LosingTeamAbbrev  *string `json:"losing_team_abbrev"`
	Date              string  `json:"date"`
}

// Kind implements Action.
func (*InactiveEvent) Kind() ActionKind { return ActionInactiveEvent }

// Event implements Action.
func (e *InactiveEvent) Event() string { return e.EventID }

// UnknownAction is an action whose kind is not recognized. It is dropped.
type UnknownAction struct {
	Name    string
	EventID string
}

// Kind implements Action.
func (a *UnknownAction) Kind() ActionKind { return ActionKind(a.Name) }

// Event implements Action.
func (a *UnknownAction) Event() string { return a.EventID }

var (
	validate     *validator.Validate
	onceValidate sync.Once
)

func getValidator() *validator.Validate {
	onceValidate.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("american_odds", func(fl validator.FieldLevel) bool {
			odds := fl.Field().Int()
			return odds <= -100 || odds >= 100
		})
	})
	return validate
}

// DecodeAction decodes and validates one inbound record. An unrecognized
// action kind is not an error: it decodes to *UnknownAction. Any other
// problem is reported as an invalid_action_payload ErrorDetails naming the
// offending field.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewErrorDetailsWithCause("malformed action envelope", errors.InvalidActionPayload, "", err)
	}
	if env.Action == "" {
		return nil, errors.NewErrorDetails("action is required", string(errors.InvalidActionPayload), "action")
	}

	var action Action
	switch env.Action {
	case ActionNewLimitBet:
		action = &LimitBet{}
	case ActionNewMarketBet:
		action = &MarketBet{}
	case ActionCancelBet:
		action = &CancelBet{}
	case ActionInactiveEvent:
		action = &InactiveEvent{}
	default:
		var head struct {
			EventID string `json:"event_id"`
		}
		_ = json.Unmarshal(env.Value, &head)
		return &UnknownAction{Name: string(env.Action), EventID: head.EventID}, nil
	}

	if len(bytes.TrimSpace(env.Value)) == 0 || bytes.Equal(bytes.TrimSpace(env.Value), []byte("null")) {
		return nil, errors.NewErrorDetails("value is required", string(errors.InvalidActionPayload), "value")
	}

	if err := json.Unmarshal(env.Value, action); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.NewErrorDetailsWithCause(
				fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type),
				errors.InvalidActionPayload, typeErr.Field, err)
		}
		return nil, errors.NewErrorDetailsWithCause("malformed action value", errors.InvalidActionPayload, "value", err)
	}

	if err := getValidator().Struct(action); err != nil {
		var validationErrs validator.ValidationErrors
		if stderrors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fe := validationErrs[0]
			return nil, errors.NewErrorDetailsWithCause(
				fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()),
				errors.InvalidActionPayload, fe.Field(), err)
		}
		return nil, errors.NewErrorDetailsWithCause("invalid action value", errors.InvalidActionPayload, "value", err)
	}

	return action, nil
}
