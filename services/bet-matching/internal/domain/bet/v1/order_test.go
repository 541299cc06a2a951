package betv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_ValueSemantics(t *testing.T) {
	order := Order{BetID: 1, Amount: 100}

	less := order.Less(40)
	assert.Equal(t, 60.0, less.Amount)
	assert.Equal(t, 100.0, order.Amount)

	replaced := order.WithAmount(5)
	assert.Equal(t, 5.0, replaced.Amount)
	assert.Equal(t, 100.0, order.Amount)
}

func TestOrder_Depleted(t *testing.T) {
	assert.False(t, Order{Amount: 0.01}.Depleted())
	assert.True(t, Order{Amount: 0}.Depleted())
	assert.True(t, Order{Amount: -0.004}.Depleted())
}

func TestOrder_Accepts(t *testing.T) {
	testCases := []struct {
		name      string
		working   int
		candidate int
		expected  bool
	}{
		{name: "candidate above", working: -150, candidate: 130, expected: true},
		{name: "equal price", working: 120, candidate: 120, expected: true},
		{name: "candidate below", working: 200, candidate: 130, expected: false},
		{name: "both negative, candidate below", working: -110, candidate: -150, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			working := Order{Price: tc.working}
			assert.Equal(t, tc.expected, working.Accepts(Order{Price: tc.candidate}))
		})
	}
}

func TestOrder_MarshalRoundTrip(t *testing.T) {
	order := Order{
		EventID:     "202012060kan",
		Sport:       "NFL",
		BetID:       7,
		BrokerageID: 2,
		UserID:      3,
		Amount:      53.08,
		Price:       -150,
		Side:        "DEN",
	}

	member, err := order.Marshal()
	require.NoError(t, err)
	assert.Contains(t, member, `"odds":-150`)
	assert.Contains(t, member, `"on_team_abbrev":"DEN"`)

	decoded, err := UnmarshalOrder(member)
	require.NoError(t, err)
	assert.Equal(t, order, decoded)

	_, err = UnmarshalOrder("not json")
	assert.Error(t, err)
}

func TestEventStatus_Sides(t *testing.T) {
	status := EventStatus{Status: EventActive, HomeTeamAbbrev: "DEN", AwayTeamAbbrev: "KAN"}
	assert.True(t, status.IsActive())

	isHome, opposing, ok := status.Sides("DEN")
	assert.True(t, ok)
	assert.True(t, isHome)
	assert.Equal(t, "KAN", opposing)

	isHome, opposing, ok = status.Sides("KAN")
	assert.True(t, ok)
	assert.False(t, isHome)
	assert.Equal(t, "DEN", opposing)

	_, _, ok = status.Sides("LAR")
	assert.False(t, ok)

	assert.False(t, EventStatus{Status: EventInactive}.IsActive())
}
