package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// Redis stores content and revision as plain keys and the history as a
// list. Both Load and Save run inside MULTI/EXEC, so a load observes
// either the pre- or post-state of any save, never a mix.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

const redisDocSet = "docs"

func redisKey(docID, field string) string {
	return "doc:" + docID + ":" + field
}

func (r *Redis) Load(ctx context.Context, docID string) (Doc, error) {
	var (
		contentCmd *redis.StringCmd
		revCmd     *redis.StringCmd
		histCmd    *redis.StringSliceCmd
	)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		contentCmd = p.Get(ctx, redisKey(docID, "content"))
		revCmd = p.Get(ctx, redisKey(docID, "revision"))
		histCmd = p.LRange(ctx, redisKey(docID, "history"), 0, -1)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, fmt.Errorf("load %s: %w", docID, err)
	}

	rev, err := strconv.Atoi(revCmd.Val())
	if err != nil {
		return Doc{}, fmt.Errorf("load %s: bad revision %q", docID, revCmd.Val())
	}
	history, err := decodeOps(histCmd.Val())
	if err != nil {
		return Doc{}, fmt.Errorf("load %s: %w", docID, err)
	}
	return Doc{Content: contentCmd.Val(), Revision: rev, History: history}, nil
}

func (r *Redis) Save(ctx context.Context, docID, content string, revision int, appended []*ot.Operation) error {
	encoded, err := encodeOps(appended)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisKey(docID, "content"), content, 0)
		p.Set(ctx, redisKey(docID, "revision"), strconv.Itoa(revision), 0)
		if len(encoded) > 0 {
			vals := make([]interface{}, len(encoded))
			for i, v := range encoded {
				vals[i] = v
			}
			p.RPush(ctx, redisKey(docID, "history"), vals...)
		}
		p.SAdd(ctx, redisDocSet, docID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", docID, err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, redisDocSet).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
