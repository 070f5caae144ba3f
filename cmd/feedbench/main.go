// Command feedbench 压测关注写入与关注流读取：两步查询（作者 ID + IN）对比 JOIN
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := repository.Migrate(db); err != nil {
		panic(err)
	}

	// N 个用户，每人关注 FOLLOWS 个作者、发 POSTS 条帖子
	N := envInt("N", 2000)
	FOLLOWS := envInt("FOLLOWS", 50)
	POSTS := envInt("POSTS", 5)
	CONC := envInt("CONC", 4)
	READS := envInt("READS", 500)
	if FOLLOWS >= N {
		FOLLOWS = N - 1
	}

	ctx := context.Background()
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	relSvc := service.NewRelationshipService(followRepo, postRepo, nil, cfg.Pagination.PageSize)

	// seed users + posts
	users := make([]model.User, N)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{Username: "u" + id[:8], Email: id[:8] + "@example.com", PasswordHash: "-"}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}
	posts := make([]model.Post, 0, N*POSTS)
	for i := range users {
		for j := 0; j < POSTS; j++ {
			posts = append(posts, model.Post{AuthorID: users[i].ID, Text: fmt.Sprintf("post %d of %s", j, users[i].Username)})
		}
	}
	if err := db.Omit("Author", "Group").CreateInBatches(&posts, 1000).Error; err != nil {
		panic(err)
	}

	// follow writes with CONC workers
	type pair struct{ user, author uint }
	feed := make(chan pair, N*(FOLLOWS+1))
	rnd := rand.New(rand.NewSource(1))
	for i := range users {
		for _, k := range rnd.Perm(N)[:FOLLOWS+1] {
			if k == i {
				continue
			}
			feed <- pair{users[i].ID, users[k].ID}
		}
	}
	close(feed)
	var (
		mu     sync.Mutex
		writes = make([]time.Duration, 0, N*FOLLOWS)
		wg     sync.WaitGroup
	)
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, 1024)
			for p := range feed {
				st := time.Now()
				_ = relSvc.Follow(ctx, p.user, p.author)
				local = append(local, time.Since(st))
			}
			mu.Lock()
			writes = append(writes, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	writeDur := time.Since(t0)

	// reads: two-step vs join
	size := cfg.Pagination.PageSize
	twoStep := make([]time.Duration, 0, READS)
	joined := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		u := users[rnd.Intn(N)].ID

		st := time.Now()
		_, _ = relSvc.Feed(ctx, u, 1)
		twoStep = append(twoStep, time.Since(st))

		st = time.Now()
		var rows []*model.Post
		_ = db.WithContext(ctx).
			Joins("JOIN follows ON follows.author_id = posts.author_id AND follows.user_id = ?", u).
			Preload("Author").Preload("Group").
			Order("posts.pub_date DESC, posts.id DESC").
			Limit(size).Find(&rows).Error
		joined = append(joined, time.Since(st))
	}

	fmt.Printf("N=%d FOLLOWS=%d POSTS=%d CONC=%d READS=%d\n", N, FOLLOWS, POSTS, CONC, READS)
	fmt.Printf("Follow write total: %v, ops=%d, p50=%v p95=%v p99=%v\n",
		writeDur, len(writes), pct(writes, 0.50), pct(writes, 0.95), pct(writes, 0.99))
	fmt.Printf("Feed two-step (page=%d): p50=%v p95=%v p99=%v\n", size, pct(twoStep, 0.50), pct(twoStep, 0.95), pct(twoStep, 0.99))
	fmt.Printf("Feed join     (page=%d): p50=%v p95=%v p99=%v\n", size, pct(joined, 0.50), pct(joined, 0.95), pct(joined, 0.99))
}
