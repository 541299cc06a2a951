package betv1

// EventState is the lifecycle state of a sporting event.
type EventState string

const (
	// EventActive means bets on the event may be matched.
	EventActive EventState = "ACTIVE"
	// EventInactive means the event no longer accepts bets.
	EventInactive EventState = "INACTIVE"
)

// EventStatus is written by the event feed whenever an event changes state.
// The matcher only reads it.
type EventStatus struct {
	EventID        string     `json:"event_id,omitempty"`
	Status         EventState `json:"status"`
	HomeTeamAbbrev string     `json:"home_team_abbrev"`
	AwayTeamAbbrev string     `json:"away_team_abbrev"`
}

// IsActive reports whether bets may be matched on the event.
func (s EventStatus) IsActive() bool {
	return s.Status == EventActive
}

// Sides resolves which role the team plays in the event. It returns whether
// team is the home side, the opposing team, and false when team plays in
// neither role.
func (s EventStatus) Sides(team string) (isHome bool, opposing string, ok bool) {
	switch team {
	case s.HomeTeamAbbrev:
		return true, s.AwayTeamAbbrev, true
	case s.AwayTeamAbbrev:
		return false, s.HomeTeamAbbrev, true
	default:
		return false, "", false
	}
}
