package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"my-campaign/domain/model"
)

func TestBroadcastPublishStatus_NonBlockingWithoutSubscribers(t *testing.T) {
	hub := NewPublishHub()

	url := "https://www.youtube.com/watch?v=abc"
	hub.BroadcastPublishStatus(&model.PublishRecord{
		CampaignID:      5,
		VariantLanguage: "en",
		Status:          model.PublishStatusSuccess,
		PublicURL:       &url,
	}, false)
	hub.BroadcastPublishStatus(nil, false)
}

func TestBroadcastPublishStatus_DeliversToSubscriber(t *testing.T) {
	hub := NewPublishHub()

	ch := make(chan PublishStatusEvent, 8)
	hub.addSubscriber("operator", ch)
	defer hub.removeSubscriber("operator", ch)

	errMsg := "quotaExceeded"
	hub.BroadcastPublishStatus(&model.PublishRecord{
		CampaignID:      5,
		VariantLanguage: "es",
		Status:          model.PublishStatusFailed,
		ErrorMessage:    &errMsg,
	}, true)

	evt := <-ch
	assert.Equal(t, int64(5), evt.CampaignID)
	assert.Equal(t, "es", evt.Language)
	assert.Equal(t, model.PublishStatusFailed, evt.Status)
	assert.True(t, evt.UsedFallback)
	assert.Equal(t, "quotaExceeded", *evt.Error)
}
