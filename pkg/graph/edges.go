package graph

// Follow records that userID follows targetID. The follow and follower
// sets are updated in the same critical section so the symmetric index
// never goes out of step.
func (g *Graph) Follow(userID, targetID string) error {
	if userID == targetID {
		return ErrSelfFollow
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[userID]; !ok {
		return ErrUserNotFound
	}
	if _, ok := g.users[targetID]; !ok {
		return ErrTargetNotFound
	}
	if _, ok := g.follows[userID][targetID]; ok {
		return ErrAlreadyFollowing
	}

	g.follows[userID][targetID] = struct{}{}
	g.followers[targetID][userID] = struct{}{}
	return nil
}

// Unfollow removes the follow edge from userID to targetID, clearing
// both sides of the symmetric index together.
func (g *Graph) Unfollow(userID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[userID]; !ok {
		return ErrUserNotFound
	}
	if _, ok := g.users[targetID]; !ok {
		return ErrTargetNotFound
	}
	if _, ok := g.follows[userID][targetID]; !ok {
		return ErrNotFollowing
	}

	delete(g.follows[userID], targetID)
	delete(g.followers[targetID], userID)
	return nil
}

// Like adds userID to the post's like set.
func (g *Graph) Like(postID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.posts[postID]; !ok {
		return ErrPostNotFound
	}
	if _, ok := g.users[userID]; !ok {
		return ErrUserNotFound
	}
	if _, ok := g.likes[postID][userID]; ok {
		return ErrAlreadyLiked
	}

	g.likes[postID][userID] = struct{}{}
	return nil
}

// Unlike removes userID from the post's like set. The user itself is
// not re-validated; only the edge's presence matters.
func (g *Graph) Unlike(postID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.posts[postID]; !ok {
		return ErrPostNotFound
	}
	if _, ok := g.likes[postID][userID]; !ok {
		return ErrLikeNotFound
	}

	delete(g.likes[postID], userID)
	return nil
}
