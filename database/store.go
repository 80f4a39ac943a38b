package database

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"photostore/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

// Store holds the accounts and images collections behind one mutex.
// Every operation - reads included - runs under a single lock
// acquisition, so multi-step mutations (counter bumps, set toggles,
// aggregate recomputation) are never observed half done by another
// request. The mutated state is flushed to the backing JSON file
// before the lock is released.
//
// Callers must never hold external I/O (upload file writes, deletes)
// while a store call is in flight; those happen before or after.
type Store struct {
	mu   sync.Mutex
	path string

	accounts    map[string]*models.Account // keyed by lowercased username
	images      map[int]*models.Image
	nextImageID int
}

// filePayload is the on-disk shape of the whole store.
// nextImageID is persisted so image ids keep increasing across
// restarts and are never reused after a delete.
type filePayload struct {
	Accounts    map[string]*models.Account `json:"accounts"`
	Images      map[int]*models.Image      `json:"images"`
	NextImageID int                        `json:"next_image_id"`
}

// Open loads the store from path, starting empty if the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:        path,
		accounts:    make(map[string]*models.Account),
		images:      make(map[int]*models.Image),
		nextImageID: 1,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	if payload.Accounts != nil {
		s.accounts = payload.Accounts
	}
	if payload.Images != nil {
		s.images = payload.Images
	}
	if payload.NextImageID > s.nextImageID {
		s.nextImageID = payload.NextImageID
	}

	// guard against a hand-edited file with ids above the counter
	for id := range s.images {
		if id >= s.nextImageID {
			s.nextImageID = id + 1
		}
	}

	return s, nil
}

// Close flushes the store one last time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist writes the whole store to a temp file and renames it over
// the real one, so a crash mid-write never leaves a torn file.
// Caller must hold s.mu.
func (s *Store) persist() error {
	payload := filePayload{
		Accounts:    s.accounts,
		Images:      s.images,
		NextImageID: s.nextImageID,
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".photostore-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

func accountKey(username string) string {
	return strings.ToLower(username)
}

// Stats are the aggregate numbers shown on a profile. Total likes and
// views are recomputed by scanning the owner's live images rather than
// stored redundantly, so they cannot drift.
type Stats struct {
	Uploads    int `json:"uploads"`
	TotalLikes int `json:"total_likes"`
	TotalViews int `json:"total_views"`
}

// ownerTotals recomputes aggregate likes/views across every image
// owned by username. Caller must hold s.mu.
func (s *Store) ownerTotals(username string) (likes, views int) {
	for _, img := range s.images {
		if img.Owner == username {
			likes += len(img.Likes)
			views += len(img.Views)
		}
	}
	return likes, views
}

func cloneImage(img *models.Image) models.Image {
	out := *img
	out.Likes = append([]string(nil), img.Likes...)
	out.Views = append([]string(nil), img.Views...)
	out.Comments = append([]models.Comment(nil), img.Comments...)
	return out
}

// CreateAccount inserts a new account. Username collisions are checked
// case-insensitively.
func (s *Store) CreateAccount(account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey(account.Username)
	if _, ok := s.accounts[key]; ok {
		return ErrExists
	}

	a := account
	s.accounts[key] = &a
	return s.persist()
}

func (s *Store) GetAccount(username string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountKey(username)]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return *account, nil
}

func (s *Store) SetAccountAvatar(username, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountKey(username)]
	if !ok {
		return ErrNotFound
	}
	account.Avatar = filename
	return s.persist()
}

func (s *Store) SetAccountPassword(username, passwdHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountKey(username)]
	if !ok {
		return ErrNotFound
	}
	account.PasswdHash = passwdHash
	return s.persist()
}

// AccountStats returns the uploads counter alongside freshly
// recomputed like/view totals.
func (s *Store) AccountStats(username string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountKey(username)]
	if !ok {
		return Stats{}, ErrNotFound
	}

	likes, views := s.ownerTotals(account.Username)
	return Stats{Uploads: account.Uploads, TotalLikes: likes, TotalViews: views}, nil
}

// InsertImage stores a new image and bumps the owner's uploads counter
// in the same transaction, so the counter never lags the collection.
// The assigned id is returned.
func (s *Store) InsertImage(image models.Image) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := cloneImage(&image)
	if img.Likes == nil {
		img.Likes = []string{}
	}
	if img.Views == nil {
		img.Views = []string{}
	}
	if img.Comments == nil {
		img.Comments = []models.Comment{}
	}

	img.ID = s.nextImageID
	s.nextImageID++
	s.images[img.ID] = &img

	if account, ok := s.accounts[accountKey(img.Owner)]; ok {
		account.Uploads++
	}

	if err := s.persist(); err != nil {
		return 0, err
	}
	return img.ID, nil
}

func (s *Store) GetImage(id int) (models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return models.Image{}, ErrNotFound
	}
	return cloneImage(img), nil
}

// DeleteImage removes the record, decrements the owner's uploads
// counter and recomputes the owner's aggregate totals, all under one
// lock acquisition. Removing the file on disk is the caller's job and
// happens outside the lock.
func (s *Store) DeleteImage(id int) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return Stats{}, ErrNotFound
	}

	owner := img.Owner
	delete(s.images, id)

	stats := Stats{}
	if account, ok := s.accounts[accountKey(owner)]; ok {
		if account.Uploads > 0 {
			account.Uploads--
		}
		stats.Uploads = account.Uploads
	}
	stats.TotalLikes, stats.TotalViews = s.ownerTotals(owner)

	if err := s.persist(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Store) SetImagePublic(id int, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return ErrNotFound
	}
	img.Public = public
	return s.persist()
}

// ToggleLike adds or removes username from the image's likes set.
// Liking an already-liked image, or unliking one never liked, is a
// no-op. Returns the updated likes list and the total likes across the
// requester's own images, recomputed in the same transaction.
func (s *Store) ToggleLike(id int, username string, like bool) ([]string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, 0, ErrNotFound
	}

	idx := -1
	for i, liker := range img.Likes {
		if liker == username {
			idx = i
			break
		}
	}

	switch {
	case like && idx < 0:
		img.Likes = append(img.Likes, username)
	case !like && idx >= 0:
		img.Likes = append(img.Likes[:idx], img.Likes[idx+1:]...)
	}

	totalLikes, _ := s.ownerTotals(username)

	if err := s.persist(); err != nil {
		return nil, 0, err
	}
	return append([]string(nil), img.Likes...), totalLikes, nil
}

// RecordView adds username to the image's viewers set if not already
// present. Reports whether this was the first view by that user.
func (s *Store) RecordView(id int, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return false, ErrNotFound
	}

	for _, viewer := range img.Views {
		if viewer == username {
			return false, nil
		}
	}

	img.Views = append(img.Views, username)
	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// AddComment appends a comment and returns the full updated list.
// Comments are append-only; there is no edit or delete.
func (s *Store) AddComment(id int, comment models.Comment) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, ErrNotFound
	}

	img.Comments = append(img.Comments, comment)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return append([]models.Comment(nil), img.Comments...), nil
}

// SearchImages returns copies of every image matching the predicate.
func (s *Store) SearchImages(match func(models.Image) bool) []models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Image
	for _, img := range s.images {
		if match(cloneImage(img)) {
			out = append(out, cloneImage(img))
		}
	}
	return out
}

// Feed returns image ids for a page. The index page shows the four
// most popular public images (likes + views); the profile page shows
// all of the requester's images newest first, private ones included;
// everything else shows public images newest first.
func (s *Store) Feed(username, pagetype string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []*models.Image
	for _, img := range s.images {
		if pagetype == "profile" && username != "" {
			if img.Owner == username {
				selected = append(selected, img)
			}
		} else if img.Public {
			selected = append(selected, img)
		}
	}

	if pagetype == "index" {
		sort.Slice(selected, func(i, j int) bool {
			pi := len(selected[i].Likes) + len(selected[i].Views)
			pj := len(selected[j].Likes) + len(selected[j].Views)
			if pi != pj {
				return pi > pj
			}
			return selected[i].ID < selected[j].ID
		})
		if len(selected) > 4 {
			selected = selected[:4]
		}
	} else {
		sort.Slice(selected, func(i, j int) bool {
			if selected[i].Timestamp != selected[j].Timestamp {
				return selected[i].Timestamp > selected[j].Timestamp
			}
			return selected[i].ID > selected[j].ID
		})
	}

	ids := make([]int, 0, len(selected))
	for _, img := range selected {
		ids = append(ids, img.ID)
	}
	return ids
}
