package redis

import (
	"context"
	"reflect"

	"github.com/redis/go-redis/v9"
)

// addWithIncrement appends member to the sorted set at key with the next free score.
func (r repo) addWithIncrement(ctx context.Context, key string, member string) error {
	return r.maxScoreScript.Run(ctx, r.rc, []string{key}, member).Err()
}

// hSetStruct writes the redis-tagged fields of value. Untagged, "-" tagged and nil pointer
// fields are skipped.
func (r repo) hSetStruct(ctx context.Context, c redis.Pipeliner, key string, value any) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	fields := make(map[string]any)
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("redis")
		if tag == "" || tag == "-" {
			continue
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			fields[tag] = field.Elem().Interface()
		} else {
			fields[tag] = field.Interface()
		}
	}

	c.HSet(ctx, key, fields)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) requireKey(ctx context.Context, key string, notFound error) error {
	exists, err := r.rc.Exists(ctx, key).Result()
	if err != nil {
		return err
	}

	if exists == 0 {
		return notFound
	}

	return nil
}
