// Package redis stores a namespace in Redis: the face gallery as one JSON
// string and each role set as a native Redis set.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kozaktomas/caregiver-faces/internal/config"
	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// Store implements database.Store on top of a go-redis client.
type Store struct {
	client    *goredis.Client
	namespace string
}

var _ database.Store = (*Store)(nil)

// Connect parses a redis:// URL, verifies the server is reachable and
// returns a store bound to the namespace.
func Connect(ctx context.Context, url, namespace string) (*Store, error) {
	if url == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	slog.Info("connected to Redis", "addr", opts.Addr, "namespace", namespace)
	return New(client, namespace), nil
}

// New wraps an existing client.
func New(client *goredis.Client, namespace string) *Store {
	if namespace == "" {
		namespace = database.DefaultNamespace
	}
	return &Store{client: client, namespace: namespace}
}

func (s *Store) key(name string) string {
	return s.namespace + ":" + name
}

// wrongType reports whether redis refused the command because the key holds
// a value of another type, which we treat as a corrupt record.
func wrongType(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "WRONGTYPE")
}

// LoadFaces reads the face gallery.
func (s *Store) LoadFaces(ctx context.Context) (map[string]facematch.Vector, error) {
	key := s.key(database.KeyFaces)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return map[string]facematch.Vector{}, nil
	}
	if wrongType(err) {
		return nil, fmt.Errorf("%w: %s: %w", database.ErrCorrupt, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return database.DecodeFaces(data)
}

// SaveFaces replaces the face gallery with a single SET.
func (s *Store) SaveFaces(ctx context.Context, faces map[string]facematch.Vector) error {
	data, err := database.EncodeFaces(faces)
	if err != nil {
		return err
	}
	key := s.key(database.KeyFaces)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// LoadRole returns the members of a role set in ascending order.
func (s *Store) LoadRole(ctx context.Context, set database.RoleSet) ([]string, error) {
	name, err := set.Key()
	if err != nil {
		return nil, err
	}
	key := s.key(name)

	members, err := s.client.SMembers(ctx, key).Result()
	if wrongType(err) {
		return nil, fmt.Errorf("%w: %s: %w", database.ErrCorrupt, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	slices.Sort(members)
	return members, nil
}

// SaveRole replaces a role set inside a MULTI/EXEC block.
func (s *Store) SaveRole(ctx context.Context, set database.RoleSet, names []string) error {
	name, err := set.Key()
	if err != nil {
		return err
	}
	key := s.key(name)

	members := make([]any, 0, len(names))
	for _, n := range names {
		members = append(members, n)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

func init() {
	database.RegisterBackend("redis", func(ctx context.Context, cfg *config.Config) (database.Store, error) {
		return Connect(ctx, cfg.Redis.URL, cfg.Store.Namespace)
	})
}
