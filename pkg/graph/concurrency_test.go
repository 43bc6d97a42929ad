package graph

import (
	"fmt"
	"sync"
	"testing"

	"gramdb/pkg/models"
)

// Hammers mutations from several goroutines while readers run, then
// checks the final counts. Each goroutine works on its own author and
// follow pair so every operation is expected to succeed; lost updates
// or torn index state would show up in the totals.
func TestConcurrentMutations(t *testing.T) {
	const (
		workers = 8
		rounds  = 50
	)

	g := New()
	users := make([]models.UserProfile, workers)
	for i := range users {
		users[i] = mustUser(t, g, fmt.Sprintf("user%d", i))
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
				g.Recent(10)
				g.Trending()
				g.Stats()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			me := users[i].ID
			neighbor := users[(i+1)%workers].ID
			for j := 0; j < rounds; j++ {
				p, err := g.CreatePost(models.PostCreate{AuthorID: me, MediaURL: "u", MediaType: "image", Caption: fmt.Sprintf("#w%d", i)})
				if err != nil {
					t.Errorf("CreatePost: %v", err)
					return
				}
				if err := g.Like(p.ID, neighbor); err != nil {
					t.Errorf("Like: %v", err)
					return
				}
				if err := g.Follow(me, neighbor); err != nil {
					t.Errorf("Follow: %v", err)
					return
				}
				if err := g.Unfollow(me, neighbor); err != nil {
					t.Errorf("Unfollow: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	s := g.Stats()
	if s.Posts != workers*rounds {
		t.Fatalf("posts = %d, want %d", s.Posts, workers*rounds)
	}
	if s.LikeEdges != workers*rounds {
		t.Fatalf("like edges = %d, want %d", s.LikeEdges, workers*rounds)
	}
	if s.FollowEdges != 0 {
		t.Fatalf("follow edges = %d, want 0", s.FollowEdges)
	}
	if s.Hashtags != workers {
		t.Fatalf("hashtags = %d, want %d", s.Hashtags, workers)
	}
}
