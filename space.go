package spacecache

import "context"

// Space is a view of one space of a Cache. It owns no storage; every method
// forwards to the Cache with the bound space name.
type Space struct {
	c    *Cache
	name string
}

// Space returns the view for name, creating it on first use. Views are
// memoised, so repeated calls return the same *Space. An empty name resolves
// to DefaultSpace.
func (c *Cache) Space(name string) *Space {
	name = spaceName(name)

	c.spacesMu.Lock()
	defer c.spacesMu.Unlock()
	if s, ok := c.spaces[name]; ok {
		return s
	}
	s := &Space{c: c, name: name}
	c.spaces[name] = s
	return s
}

// DefaultSpace returns the view of DefaultSpace.
func (c *Cache) DefaultSpace() *Space { return c.Space(DefaultSpace) }

func (s *Space) Name() string  { return s.name }
func (s *Space) Cache() *Cache { return s.c }

func (s *Space) Count(ctx context.Context) int {
	return s.c.Count(ctx, s.name)
}

func (s *Space) AllKeys(ctx context.Context) []string {
	return s.c.AllKeys(ctx, s.name)
}

func (s *Space) Contains(ctx context.Context, key string) bool {
	return s.c.Contains(ctx, s.name, key)
}

func (s *Space) Remove(ctx context.Context, key string) error {
	return s.c.Remove(ctx, s.name, key)
}

func (s *Space) RemoveKeys(ctx context.Context, keys []string) error {
	return s.c.RemoveKeys(ctx, s.name, keys)
}

func (s *Space) RemoveAll(ctx context.Context) error {
	return s.c.RemoveAll(ctx, s.name)
}
