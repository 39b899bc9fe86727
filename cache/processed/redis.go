package processed

import (
	"context"
	"strconv"
	"time"

	"github.com/mediocregopher/radix/v3"
)

const keyPrefix = "card_api:processed_tx:"

// Redis shares the claimed hashes between instances
type Redis struct {
	client radix.Client
	ttl    time.Duration
}

// NewRedis godoc
func NewRedis(client radix.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Claim uses SET NX so only one instance wins for a given hash
func (r *Redis) Claim(_ context.Context, hash string) (bool, error) {
	args := []string{keyPrefix + normalize(hash), "1", "NX"}
	if r.ttl > 0 {
		args = append(args, "EX", strconv.FormatInt(int64(r.ttl/time.Second), 10))
	}
	var reply string
	mn := radix.MaybeNil{Rcv: &reply}
	if err := r.client.Do(radix.Cmd(&mn, "SET", args...)); err != nil {
		return false, err
	}
	return !mn.Nil && reply == "OK", nil
}
