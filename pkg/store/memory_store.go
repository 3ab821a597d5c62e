package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"photoshare/pkg/domain"
)

// MemoryStore keeps all state in-process. It mirrors the transactional
// guarantees of the SQL store with a single mutex and exists for tests.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    uint
	users     map[uint]domain.User
	photos    map[uint]domain.Photo
	tags      map[uint]domain.Tag
	tagByName map[string]uint
	photoTags map[uint][]uint       // photo ID -> tag IDs
	likes     map[[2]uint]time.Time // (user, photo)
	favorites map[[2]uint]time.Time // (user, photo)
	comments  map[uint]domain.Comment
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		users:     make(map[uint]domain.User),
		photos:    make(map[uint]domain.Photo),
		tags:      make(map[uint]domain.Tag),
		tagByName: make(map[string]uint),
		photoTags: make(map[uint][]uint),
		likes:     make(map[[2]uint]time.Time),
		favorites: make(map[[2]uint]time.Time),
		comments:  make(map[uint]domain.Comment),
	}
}

func (m *MemoryStore) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryStore) GetUserByID(id uint) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) HasUsername(username string) (bool, error) {
	_, ok, _ := m.GetUserByUsername(username)
	return ok, nil
}

func (m *MemoryStore) HasEmail(email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreatePhoto(p domain.Photo, tagNames []string) (domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	tags := m.ensureTagsLocked(tagNames)
	seen := make(map[uint]bool, len(tags))
	linked := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		m.photoTags[p.ID] = append(m.photoTags[p.ID], t.ID)
		linked = append(linked, t)
	}
	p.Tags = linked
	m.photos[p.ID] = p
	return p, nil
}

func (m *MemoryStore) ensureTagsLocked(names []string) []domain.Tag {
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		id, ok := m.tagByName[name]
		if !ok {
			id = m.id()
			m.tags[id] = domain.Tag{ID: id, Name: name}
			m.tagByName[name] = id
		}
		tags = append(tags, m.tags[id])
	}
	return tags
}

func (m *MemoryStore) EnsureTags(names []string) ([]domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureTagsLocked(names), nil
}

func (m *MemoryStore) ListTags() ([]domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *MemoryStore) photoWithTagsLocked(p domain.Photo) domain.Photo {
	ids := m.photoTags[p.ID]
	tags := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, m.tags[id])
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	p.Tags = tags
	return p
}

func (m *MemoryStore) GetPhoto(id uint) (domain.Photo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return domain.Photo{}, false, nil
	}
	return m.photoWithTagsLocked(p), true, nil
}

func (m *MemoryStore) photosNewestFirstLocked() []domain.Photo {
	res := make([]domain.Photo, 0, len(m.photos))
	for _, p := range m.photos {
		res = append(res, m.photoWithTagsLocked(p))
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].UploadedAt.Equal(res[j].UploadedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].UploadedAt.After(res[j].UploadedAt)
	})
	return res
}

func (m *MemoryStore) ListPhotos(f PhotoFilter) ([]domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.Photo
	for _, p := range m.photosNewestFirstLocked() {
		if f.OwnerID != 0 && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Keyword != "" {
			kw := strings.ToLower(f.Keyword)
			if !strings.Contains(strings.ToLower(p.Title), kw) &&
				!strings.Contains(strings.ToLower(p.Description), kw) {
				continue
			}
		}
		if f.Tag != "" {
			found := false
			for _, t := range p.Tags {
				if t.Name == f.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		res = append(res, p)
	}
	return res, nil
}

func (m *MemoryStore) ListRecentByOwner(ownerID uint, limit int) ([]domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.Photo
	for _, p := range m.photosNewestFirstLocked() {
		if p.OwnerID != ownerID {
			continue
		}
		res = append(res, p)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (m *MemoryStore) GetPhotosByIDs(ownerID uint, ids []uint) ([]domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var res []domain.Photo
	for _, p := range m.photosNewestFirstLocked() {
		if p.OwnerID == ownerID && want[p.ID] {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) UpdatePhotoMeta(id uint, title, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.Title = title
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	m.photos[id] = p
	return nil
}

func (m *MemoryStore) SetThumbnail(id uint, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.ThumbnailKey = key
	m.photos[id] = p
	return nil
}

func (m *MemoryStore) TouchPhoto(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	m.photos[id] = p
	return nil
}

func (m *MemoryStore) DeletePhoto(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return ErrNotFound
	}
	delete(m.photos, id)
	delete(m.photoTags, id)
	for key := range m.likes {
		if key[1] == id {
			delete(m.likes, key)
		}
	}
	for key := range m.favorites {
		if key[1] == id {
			delete(m.favorites, key)
		}
	}
	for cid, c := range m.comments {
		if c.PhotoID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *MemoryStore) ToggleLike(userID, photoID uint) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[photoID]
	if !ok {
		return false, 0, ErrNotFound
	}
	key := [2]uint{userID, photoID}
	var liked bool
	if _, exists := m.likes[key]; exists {
		delete(m.likes, key)
		if p.LikeCount > 0 {
			p.LikeCount--
		}
		liked = false
	} else {
		m.likes[key] = time.Now().UTC()
		p.LikeCount++
		liked = true
	}
	m.photos[photoID] = p
	return liked, p.LikeCount, nil
}

func (m *MemoryStore) ToggleFavorite(userID, photoID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[photoID]; !ok {
		return false, ErrNotFound
	}
	key := [2]uint{userID, photoID}
	if _, exists := m.favorites[key]; exists {
		delete(m.favorites, key)
		return false, nil
	}
	m.favorites[key] = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) GetSocialState(userID, photoID uint) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint{userID, photoID}
	_, liked := m.likes[key]
	_, favorited := m.favorites[key]
	return liked, favorited, nil
}

func (m *MemoryStore) CountFavorites(photoID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key := range m.favorites {
		if key[1] == photoID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ListFavoritePhotos(userID uint) ([]domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type fav struct {
		photo domain.Photo
		at    time.Time
	}
	var favs []fav
	for key, at := range m.favorites {
		if key[0] != userID {
			continue
		}
		if p, ok := m.photos[key[1]]; ok {
			favs = append(favs, fav{m.photoWithTagsLocked(p), at})
		}
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].at.After(favs[j].at) })
	res := make([]domain.Photo, 0, len(favs))
	for _, f := range favs {
		res = append(res, f.photo)
	}
	return res, nil
}

func (m *MemoryStore) AddComment(c domain.Comment) (domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[c.PhotoID]; !ok {
		return domain.Comment{}, ErrNotFound
	}
	c.ID = m.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.comments[c.ID] = c
	return c, nil
}

func (m *MemoryStore) ListComments(photoID uint) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.Comment
	for _, c := range m.comments {
		if c.PhotoID != photoID {
			continue
		}
		if u, ok := m.users[c.UserID]; ok {
			c.Username = u.Username
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (m *MemoryStore) GetComment(id uint) (domain.Comment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	return c, ok, nil
}

func (m *MemoryStore) DeleteComment(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
