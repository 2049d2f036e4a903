package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"product_id": 12, "stars": 5}

	event, err := NewEvent("rating.created", "12", "product", "catalog-api", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "rating.created", event.EventType)
	assert.Equal(t, "12", event.AggregateID)
	assert.Equal(t, "product", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "catalog-api", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("rating.created", "12", "product", "catalog-api", make(chan int))
	assert.Error(t, err)
}

func TestEvent_RoundTrip(t *testing.T) {
	type ratingData struct {
		ProductID int64 `json:"product_id"`
		Stars     int   `json:"stars"`
	}

	event, err := NewEvent("rating.created", "12", "product", "catalog-api", ratingData{ProductID: 12, Stars: 4})
	require.NoError(t, err)
	event.WithCorrelationID("corr-123").WithMetadata("actor", "99")

	raw, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-123", decoded.CorrelationID)
	assert.Equal(t, "99", decoded.Metadata["actor"])

	var data ratingData
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, int64(12), data.ProductID)
	assert.Equal(t, 4, data.Stars)
}
