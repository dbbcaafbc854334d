package servicebus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/domain/model"
	"crossposter/infrastructure/servicebus"
)

func TestNewCrosspostEvents(t *testing.T) {
	events := servicebus.NewCrosspostEvents(nil, "crosspost-events")
	assert.NotNil(t, events)
}

func TestSendOutcomeNilClient(t *testing.T) {
	events := servicebus.NewCrosspostEvents(nil, "crosspost-events")
	err := events.SendOutcome(context.Background(), &model.CrosspostAudit{Status: "failed"})
	require.NoError(t, err)
}
