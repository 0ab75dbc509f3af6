package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"my-campaign/domain/repository"
	"my-campaign/infrastructure/configuration"
)

const campaignIDTTL = time.Hour

// CampaignCache memoizes campaign slug -> id lookups in Redis so repeated
// publish runs skip the database round trip.
type CampaignCache struct {
	redisClient *redis.Client
}

func NewCampaignCache(redisClient *redis.Client) repository.ICampaignCache {
	return &CampaignCache{redisClient: redisClient}
}

// NewRedisClient builds a client from the redisClient configuration section.
func NewRedisClient(cfg configuration.RedisClient) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
	})
}

func (c *CampaignCache) GetCampaignID(ctx context.Context, slug string) (int64, error) {
	return c.redisClient.Get(ctx, campaignKey(slug)).Int64()
}

func (c *CampaignCache) SetCampaignID(ctx context.Context, slug string, id int64) error {
	return c.redisClient.Set(ctx, campaignKey(slug), id, campaignIDTTL).Err()
}

func campaignKey(slug string) string {
	return "campaign:id:" + slug
}
