// Package redis provides a Redis-backed instance store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

const (
	defaultKeyPrefix = "automotive:workflow:"
	maxSaveAttempts  = 5
)

// Persistence stores each instance as a JSON string, with a sorted set of
// ids scored by start time and one set of ids per status.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the Redis server described by databaseURL
// (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(client, logger, defaultKeyPrefix), nil
}

// NewPersistenceWithClient wraps an existing client; prefix namespaces all keys.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{client: client, logger: logger, prefix: prefix}
}

func (p *Persistence) instanceKey(id string) string {
	return p.prefix + "instance:" + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + "instances"
}

func (p *Persistence) statusKey(status models.InstanceStatus) string {
	return p.prefix + "status:" + string(status)
}

// SaveInstance upserts the instance and moves its id between status sets
// inside a WATCH transaction, retrying when another writer wins the race.
func (p *Persistence) SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	if instance == nil {
		return persistence.NewInstanceError("SaveInstance", "", persistence.ErrNilInstance)
	}

	if err := persistence.ValidateInstanceID(instance.ID); err != nil {
		return persistence.NewInstanceError("SaveInstance", instance.ID, err)
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal instance %s: %w", instance.ID, err)
	}

	key := p.instanceKey(instance.ID)

	txf := func(tx *redis.Tx) error {
		previous, err := p.decode(tx.Get(ctx, key))
		if err != nil && !persistence.IsInstanceNotFound(err) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, p.indexKey(), redis.Z{
				Score:  float64(instance.StartedAt.UnixMilli()),
				Member: instance.ID,
			})

			if previous != nil && previous.Status != instance.Status {
				pipe.SRem(ctx, p.statusKey(previous.Status), instance.ID)
			}

			pipe.SAdd(ctx, p.statusKey(instance.Status), instance.ID)

			return nil
		})

		return err
	}

	for range maxSaveAttempts {
		err = p.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	if err != nil {
		return fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	return nil
}

func (p *Persistence) InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	instance, err := p.decode(p.client.Get(ctx, p.instanceKey(id)))
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return nil, persistence.NewInstanceError("InstanceByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, fmt.Errorf("failed to get instance %s: %w", id, err)
	}

	return instance, nil
}

func (p *Persistence) decode(cmd *redis.StringCmd) (*models.WorkflowInstance, error) {
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrInstanceNotFound
		}

		return nil, err
	}

	var instance models.WorkflowInstance

	err = json.Unmarshal(data, &instance)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance: %w", err)
	}

	return &instance, nil
}

func (p *Persistence) Instances(ctx context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	var (
		ids []string
		err error
	)

	if opts.Status != nil {
		ids, err = p.client.SMembers(ctx, p.statusKey(*opts.Status)).Result()
	} else {
		ids, err = p.client.ZRange(ctx, p.indexKey(), 0, -1).Result()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list instance ids: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(ids))
	if len(ids) == 0 {
		return instances, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p.instanceKey(id)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load instances: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var instance models.WorkflowInstance

		err := json.Unmarshal([]byte(raw), &instance)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping undecodable instance", "instance_id", ids[i], "error", err)

			continue
		}

		if opts.Matches(&instance) {
			instances = append(instances, &instance)
		}
	}

	persistence.SortInstances(instances)

	return instances, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
