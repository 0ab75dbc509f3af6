package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"my-campaign/domain/dto"
	"my-campaign/domain/model"
)

// Mock implementations

type MockCampaignLedger struct {
	mock.Mock
}

func (m *MockCampaignLedger) FindOrCreateCampaign(ctx context.Context, name string, defaults model.CampaignDefaults) (int64, error) {
	args := m.Called(ctx, name, defaults)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCampaignLedger) AppendPublishRecord(ctx context.Context, rec *model.PublishRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCampaignLedger) ListPublishRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishRecord), args.Error(1)
}

type MockAssetSource struct {
	mock.Mock
}

func (m *MockAssetSource) Resolve(ctx context.Context, spec model.RenderSpec) (*model.AssetPayload, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssetPayload), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, meta model.UploadMetadata, payload *model.AssetPayload) *model.UploadResult {
	args := m.Called(ctx, meta, payload)
	return args.Get(0).(*model.UploadResult)
}

func testEnricher() *MetadataEnricher {
	return NewMetadataEnricher("https://tulus.tech", "22", "public", "avatar-1", "voice-1")
}

func variantsForTest() []model.Variant {
	return []model.Variant{
		{LanguageTag: "en", Title: "Morning Light", Body: "English script", Hashtags: []string{"faith"}},
		{LanguageTag: "es", Title: "Luz de Manana", Body: "Spanish script", Hashtags: []string{"fe"}},
		{LanguageTag: "fr", Title: "Lumiere du Matin", Body: "French script", Hashtags: []string{"foi"}},
	}
}

func matchTitle(title string) interface{} {
	return mock.MatchedBy(func(meta model.UploadMetadata) bool { return meta.Title == title })
}

func TestPublishCampaign_RecordsMatchVariantOrder(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("video"), MimeType: "video/mp4", Rendered: true}

	ledger.On("FindOrCreateCampaign", mock.Anything, "Morning Devotional", model.CampaignDefaults{Description: "daily"}).
		Return(int64(42), nil).
		Once()

	var appended []string
	var mu sync.Mutex
	ledger.On("AppendPublishRecord", mock.Anything, mock.AnythingOfType("*model.PublishRecord")).
		Run(func(args mock.Arguments) {
			rec := args.Get(1).(*model.PublishRecord)
			mu.Lock()
			appended = append(appended, rec.VariantLanguage)
			mu.Unlock()
		}).
		Return(nil).
		Times(3)

	source.On("Resolve", mock.Anything, mock.AnythingOfType("model.RenderSpec")).
		Return(rendered, nil).
		Times(3)

	for i, title := range []string{"Morning Light", "Luz de Manana", "Lumiere du Matin"} {
		uploader.On("Upload", mock.Anything, matchTitle(title), rendered).
			Return(&model.UploadResult{Success: true, PlatformAssetID: fmt.Sprintf("vid-%d", i), PublicURL: fmt.Sprintf("https://www.youtube.com/watch?v=vid-%d", i)}).
			Once()
	}

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Description:  "daily",
		Variants:     variantsForTest(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, int64(42), resp.CampaignID)
	assert.Equal(t, []string{"en", "es", "fr"}, appended)
	for i, res := range resp.Results {
		assert.True(t, res.Success)
		assert.Equal(t, variantsForTest()[i].LanguageTag, res.LanguageTag)
		assert.NotEmpty(t, res.PublicURL)
	}
	assert.Empty(t, resp.Warnings)

	ledger.AssertExpectations(t)
	source.AssertExpectations(t)
	uploader.AssertExpectations(t)
}

func TestPublishCampaign_MiddleVariantFailureIsIsolated(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("video"), MimeType: "video/mp4", Rendered: true}

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	ledger.On("AppendPublishRecord", mock.Anything, mock.Anything).Return(nil).Times(3)
	source.On("Resolve", mock.Anything, mock.Anything).Return(rendered, nil).Times(3)

	uploader.On("Upload", mock.Anything, matchTitle("Morning Light"), rendered).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid-1", PublicURL: "https://www.youtube.com/watch?v=vid-1"}).
		Once()
	// Quota exhaustion is permanent: exactly one attempt, no retries.
	uploader.On("Upload", mock.Anything, matchTitle("Luz de Manana"), rendered).
		Return(&model.UploadResult{Success: false, ErrorMessage: "quotaExceeded: The request cannot be completed because you have exceeded your quota.", Retryable: false}).
		Once()
	uploader.On("Upload", mock.Anything, matchTitle("Lumiere du Matin"), rendered).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid-3", PublicURL: "https://www.youtube.com/watch?v=vid-3"}).
		Once()

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.Contains(t, resp.Results[1].ErrorMessage, "quota")
	assert.True(t, resp.Results[2].Success)

	ledger.AssertExpectations(t)
	uploader.AssertExpectations(t)
}

func TestPublishCampaign_LedgerFailureBecomesWarning(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("video"), MimeType: "video/mp4", Rendered: true}

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	ledger.On("AppendPublishRecord", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	source.On("Resolve", mock.Anything, mock.Anything).Return(rendered, nil).Once()
	uploader.On("Upload", mock.Anything, mock.Anything, rendered).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid-1", PublicURL: "https://www.youtube.com/watch?v=vid-1"}).
		Once()

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest()[:1],
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	// Upload already succeeded; the ledger problem must not change the outcome.
	assert.True(t, resp.Results[0].Success)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "ledger append failed for en")
}

func TestPublishCampaign_RenderFallbackIsReported(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("rendered"), MimeType: "video/mp4", Rendered: true}
	fallback := &model.AssetPayload{Data: []byte("stock"), MimeType: "video/mp4", Rendered: false}

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	ledger.On("AppendPublishRecord", mock.Anything, mock.Anything).Return(nil).Times(2)

	source.On("Resolve", mock.Anything, mock.MatchedBy(func(spec model.RenderSpec) bool { return spec.Script == "English script" })).
		Return(rendered, nil).
		Once()
	source.On("Resolve", mock.Anything, mock.MatchedBy(func(spec model.RenderSpec) bool { return spec.Script == "Spanish script" })).
		Return(fallback, nil).
		Once()

	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid", PublicURL: "https://www.youtube.com/watch?v=vid"}).
		Times(2)

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest()[:2],
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[0].UsedFallback)
	assert.True(t, resp.Results[1].Success)
	assert.True(t, resp.Results[1].UsedFallback)
}

func TestPublishCampaign_TransientUploadFailureIsRetried(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("video"), MimeType: "video/mp4", Rendered: true}

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	ledger.On("AppendPublishRecord", mock.Anything, mock.Anything).Return(nil).Once()
	source.On("Resolve", mock.Anything, mock.Anything).Return(rendered, nil).Once()

	uploader.On("Upload", mock.Anything, mock.Anything, rendered).
		Return(&model.UploadResult{Success: false, ErrorMessage: "backendError: try again later", Retryable: true}).
		Once()
	uploader.On("Upload", mock.Anything, mock.Anything, rendered).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid-1", PublicURL: "https://www.youtube.com/watch?v=vid-1"}).
		Once()

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher()).(*publishUsecase)
	uc.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest()[:1],
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
	uploader.AssertNumberOfCalls(t, "Upload", 2)
}

func TestPublishCampaign_AssetResolutionFailureSkipsUpload(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	ledger.On("AppendPublishRecord", mock.Anything, mock.Anything).Return(nil).Once()
	source.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("fallback asset fetch failed: 404 Not Found")).Once()

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest()[:1],
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].ErrorMessage, "asset resolution failed")
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishCampaign_MissingUploaderRejectedUpFront(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)

	uc := NewPublishUsecase(ledger, source, nil, testEnricher())
	_, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest(),
	})

	require.Error(t, err)
	assert.Equal(t, "platform uploader not configured", err.Error())
	ledger.AssertNotCalled(t, "FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishCampaign_ValidatesRequest(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())

	_, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{Variants: variantsForTest()})
	assert.EqualError(t, err, "campaign name required")

	_, err = uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{CampaignName: "x"})
	assert.EqualError(t, err, "at least one variant required")
}

func TestPublishCampaign_ConcurrentModePreservesOrder(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	rendered := &model.AssetPayload{Data: []byte("video"), MimeType: "video/mp4", Rendered: true}

	ledger.On("FindOrCreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(int64(7), nil).Once()

	var appended []string
	var mu sync.Mutex
	ledger.On("AppendPublishRecord", mock.Anything, mock.AnythingOfType("*model.PublishRecord")).
		Run(func(args mock.Arguments) {
			rec := args.Get(1).(*model.PublishRecord)
			mu.Lock()
			appended = append(appended, rec.VariantLanguage)
			mu.Unlock()
		}).
		Return(nil).
		Times(3)

	source.On("Resolve", mock.Anything, mock.Anything).Return(rendered, nil).Times(3)
	uploader.On("Upload", mock.Anything, mock.Anything, rendered).
		Return(&model.UploadResult{Success: true, PlatformAssetID: "vid", PublicURL: "https://www.youtube.com/watch?v=vid"}).
		Times(3)

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher(), WithConcurrency(3))
	resp, err := uc.PublishCampaign(context.Background(), &dto.PublishCampaignRequest{
		CampaignName: "Morning Devotional",
		Variants:     variantsForTest(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	// The ledger sequence matches input order even when uploads ran in parallel.
	assert.Equal(t, []string{"en", "es", "fr"}, appended)
	for i, res := range resp.Results {
		assert.Equal(t, variantsForTest()[i].LanguageTag, res.LanguageTag)
	}
}

func TestGetRecords(t *testing.T) {
	ledger := new(MockCampaignLedger)
	source := new(MockAssetSource)
	uploader := new(MockUploader)

	want := []*model.PublishRecord{{ID: 1, CampaignID: 7, VariantLanguage: "en", Status: model.PublishStatusSuccess}}
	ledger.On("ListPublishRecords", mock.Anything, int64(7)).Return(want, nil).Once()

	uc := NewPublishUsecase(ledger, source, uploader, testEnricher())
	got, err := uc.GetRecords(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	ledger.AssertExpectations(t)
}
