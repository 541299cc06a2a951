package main

import (
	"encoding/json"
	"math"
	"math/rand"

	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// Scenario describes the sample event actions are generated for.
type Scenario struct {
	EventID     string
	Sport       string
	HomeTeam    string
	AwayTeam    string
	Count       int
	MarketRatio float64
	CancelRatio float64
	Close       bool
}

// generateActions builds count envelopes for the scenario. Cancels target
// earlier limit bets, and when Close is set the last envelope closes the event.
func generateActions(rng *rand.Rand, s Scenario) ([]betv1.Envelope, error) {
	envelopes := make([]betv1.Envelope, 0, s.Count+1)
	var limits []*betv1.LimitBet

	for i := 0; i < s.Count; i++ {
		betID := int64(i + 1)
		brokerageID := int64(rng.Intn(5) + 1)
		userID := int64(rng.Intn(1000) + 1)
		amount := math.Round((5+rng.Float64()*495)*100) / 100
		team := s.HomeTeam
		if rng.Intn(2) == 1 {
			team = s.AwayTeam
		}

		var action betv1.Action
		switch roll := rng.Float64(); {
		case roll < s.CancelRatio && len(limits) > 0:
			target := limits[rng.Intn(len(limits))]
			action = &betv1.CancelBet{
				EventID:      s.EventID,
				Sport:        s.Sport,
				BetID:        target.BetID,
				BrokerageID:  target.BrokerageID,
				UserID:       target.UserID,
				Odds:         target.Odds,
				OnTeamAbbrev: target.OnTeamAbbrev,
			}
		case roll < s.CancelRatio+s.MarketRatio:
			action = &betv1.MarketBet{
				EventID:      s.EventID,
				Sport:        s.Sport,
				BetID:        &betID,
				BrokerageID:  &brokerageID,
				UserID:       &userID,
				Amount:       &amount,
				OrderType:    "MARKET",
				OnTeamAbbrev: team,
			}
		default:
			odds := randomOdds(rng)
			bet := &betv1.LimitBet{
				EventID:      s.EventID,
				Sport:        s.Sport,
				BetID:        &betID,
				BrokerageID:  &brokerageID,
				UserID:       &userID,
				Amount:       &amount,
				Odds:         &odds,
				OrderType:    "LIMIT",
				OnTeamAbbrev: team,
			}
			limits = append(limits, bet)
			action = bet
		}

		envelope, err := toEnvelope(action)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}

	if s.Close {
		winner := s.HomeTeam
		envelope, err := toEnvelope(&betv1.InactiveEvent{
			EventID:           s.EventID,
			Sport:             s.Sport,
			HomeTeamAbbrev:    s.HomeTeam,
			AwayTeamAbbrev:    s.AwayTeam,
			WinningTeamAbbrev: &winner,
			LosingTeamAbbrev:  &s.AwayTeam,
		})
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}

	return envelopes, nil
}

// randomOdds returns American odds in [-300, -100] or [100, 300], in steps of 5.
func randomOdds(rng *rand.Rand) int {
	odds := 100 + 5*rng.Intn(41)
	if rng.Intn(2) == 0 {
		return -odds
	}
	return odds
}

func toEnvelope(action betv1.Action) (betv1.Envelope, error) {
	value, err := json.Marshal(action)
	if err != nil {
		return betv1.Envelope{}, err
	}
	return betv1.Envelope{Action: action.Kind(), Value: value}, nil
}
