package graph

// Stats is a point-in-time summary of graph contents. Hashtags counts
// only tags that still index at least one post.
type Stats struct {
	Users       int `json:"users"`
	Posts       int `json:"posts"`
	Comments    int `json:"comments"`
	FollowEdges int `json:"follow_edges"`
	LikeEdges   int `json:"like_edges"`
	Hashtags    int `json:"hashtags"`
}

// Stats counts records and edges under the read lock.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Stats{
		Users:    len(g.users),
		Posts:    len(g.posts),
		Comments: len(g.comments),
	}
	for _, set := range g.follows {
		s.FollowEdges += len(set)
	}
	for _, set := range g.likes {
		s.LikeEdges += len(set)
	}
	for _, set := range g.hashtagPosts {
		if len(set) > 0 {
			s.Hashtags++
		}
	}
	return s
}
