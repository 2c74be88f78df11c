// Package archive holds the in-memory letter collection and the views derived
// from it.
package archive

import (
	"strconv"
	"sync"
	"time"

	"earsip/internal/domain"
)

// Persister receives a snapshot of the collection after every mutation.
type Persister interface {
	Save(letters []domain.Letter)
}

// Collection is the authoritative list of letters, newest first.
type Collection struct {
	mu      sync.RWMutex
	letters []domain.Letter
	store   Persister
	now     func() time.Time
	lastID  int64
}

func NewCollection(letters []domain.Letter, store Persister) *Collection {
	return &Collection{
		letters: cloneLetters(letters),
		store:   store,
		now:     time.Now,
		lastID:  maxNumericID(letters),
	}
}

// Snapshot returns a copy of every letter in collection order.
func (c *Collection) Snapshot() []domain.Letter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLetters(c.letters)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.letters)
}

func (c *Collection) Get(id string) (domain.Letter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if idx := c.indexOf(id); idx >= 0 {
		return cloneLetter(c.letters[idx]), true
	}
	return domain.Letter{}, false
}

// Create inserts a new letter at the head of the collection.
func (c *Collection) Create(draft domain.Draft, summary string) domain.Letter {
	c.mu.Lock()
	defer c.mu.Unlock()

	letter := draft.Apply(c.nextIDLocked(), summary)
	c.letters = append([]domain.Letter{letter}, c.letters...)
	c.saveLocked()
	return cloneLetter(letter)
}

// Update replaces every field of the letter except its id and summary.
// It reports false and changes nothing when id is unknown.
func (c *Collection) Update(id string, draft domain.Draft) (domain.Letter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Letter{}, false
	}

	updated := draft.Apply(id, c.letters[idx].Summary)
	c.letters[idx] = updated
	c.saveLocked()
	return cloneLetter(updated), true
}

// Delete removes the letter. Unknown ids are a no-op.
func (c *Collection) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}

	c.letters = append(c.letters[:idx:idx], c.letters[idx+1:]...)
	c.saveLocked()
	return true
}

// ReplaceAll swaps the whole collection for records.
func (c *Collection) ReplaceAll(records []domain.Letter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.letters = cloneLetters(records)
	c.lastID = max(c.lastID, maxNumericID(records))
	c.saveLocked()
}

func (c *Collection) indexOf(id string) int {
	for i := range c.letters {
		if c.letters[i].ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked returns a millisecond timestamp id, bumped past the highest
// id issued or loaded so far and past any id already in the collection.
func (c *Collection) nextIDLocked() string {
	candidate := c.now().UnixMilli()
	if candidate <= c.lastID {
		candidate = c.lastID + 1
	}
	for c.indexOf(strconv.FormatInt(candidate, 10)) >= 0 {
		candidate++
	}
	c.lastID = candidate
	return strconv.FormatInt(candidate, 10)
}

// maxNumericID is the largest id that parses as an integer, or zero.
func maxNumericID(letters []domain.Letter) int64 {
	var highest int64
	for _, l := range letters {
		if n, err := strconv.ParseInt(l.ID, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func (c *Collection) saveLocked() {
	if c.store == nil {
		return
	}
	c.store.Save(cloneLetters(c.letters))
}

func cloneLetters(letters []domain.Letter) []domain.Letter {
	out := make([]domain.Letter, len(letters))
	for i := range letters {
		out[i] = cloneLetter(letters[i])
	}
	return out
}

func cloneLetter(l domain.Letter) domain.Letter {
	if l.Attachment != nil {
		a := *l.Attachment
		l.Attachment = &a
	}
	return l
}
