package rediscache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
)

const (
	keyPrefix     = "fpms:submissions:"
	allKey        = keyPrefix + "all"
	departmentKey = keyPrefix + "dept:"
)

// Client is the subset of *goredis.Client used for snapshots.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// Connect opens a client and checks the server answers.
func Connect(conf core.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

// submissionRepository serves the report listings from a short-lived snapshot.
// Everything else goes straight to the wrapped repository. Redis failures are logged
// and the wrapped repository answers instead.
type submissionRepository struct {
	evaluation.Repository

	rdb Client
	ttl time.Duration
	log core.Logger
}

var _ evaluation.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(next evaluation.Repository, rdb Client, ttl time.Duration, log core.Logger) evaluation.Repository {
	return &submissionRepository{Repository: next, rdb: rdb, ttl: ttl, log: log}
}

func (repo *submissionRepository) ListAllSubmissions(ctx context.Context) ([]evaluation.Submission, error) {
	return repo.snapshot(ctx, allKey, func() ([]evaluation.Submission, error) {
		return repo.Repository.ListAllSubmissions(ctx)
	})
}

// ListSubmissionsByDepartment keys the snapshot on the same trimmed department the wrapped store is queried with.
func (repo *submissionRepository) ListSubmissionsByDepartment(ctx context.Context, department string) ([]evaluation.Submission, error) {
	department = strings.TrimSpace(department)
	return repo.snapshot(ctx, deptKey(department), func() ([]evaluation.Submission, error) {
		return repo.Repository.ListSubmissionsByDepartment(ctx, department)
	})
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	created, err := repo.Repository.CreateSubmission(ctx, sub)
	if err == nil {
		repo.invalidate(ctx, strings.TrimSpace(created.Department))
	}
	return created, err
}

func (repo *submissionRepository) SaveSubmission(ctx context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	saved, err := repo.Repository.SaveSubmission(ctx, sub)
	if err == nil {
		repo.invalidate(ctx, strings.TrimSpace(saved.Department))
	}
	return saved, err
}

func (repo *submissionRepository) snapshot(
	ctx context.Context,
	key string,
	load func() ([]evaluation.Submission, error),
) ([]evaluation.Submission, error) {
	raw, err := repo.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var subs []evaluation.Submission
		if err = json.Unmarshal(raw, &subs); err == nil {
			return subs, nil
		}
		repo.log.Warn("decoding submission snapshot", err, map[string]interface{}{"key": key})
	case err != goredis.Nil:
		repo.log.Warn("reading submission snapshot", err, map[string]interface{}{"key": key})
	}

	subs, err := load()
	if err != nil {
		return nil, err
	}
	if raw, err = json.Marshal(subs); err == nil {
		err = repo.rdb.Set(ctx, key, raw, repo.ttl).Err()
	}
	if err != nil {
		repo.log.Warn("writing submission snapshot", err, map[string]interface{}{"key": key})
	}
	return subs, nil
}

func (repo *submissionRepository) invalidate(ctx context.Context, department string) {
	if err := repo.rdb.Del(ctx, allKey, deptKey(department)).Err(); err != nil {
		repo.log.Warn("invalidating submission snapshot", err, map[string]interface{}{"department": department})
	}
}

func deptKey(department string) string {
	return departmentKey + strings.ToLower(department)
}
