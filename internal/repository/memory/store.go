// Package memory provides an in-process repository.Store used for dry runs and tests.
// Transactions write in place while holding the store lock and undo their writes
// from a journal when they fail.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/repository"
)

type auditKey struct {
	matchHash string
	athleteID uuid.UUID
}

type data struct {
	athletes   map[uuid.UUID]*models.Athlete
	identities map[models.AthleteKey]uuid.UUID
	ratings    map[models.SeasonRatingKey]*models.SeasonRating
	byHash     map[string][]*models.RankingMatchAudit
	auditKeys  map[auditKey]struct{}
	auditCount int
}

func newData() *data {
	return &data{
		athletes:   make(map[uuid.UUID]*models.Athlete),
		identities: make(map[models.AthleteKey]uuid.UUID),
		ratings:    make(map[models.SeasonRatingKey]*models.SeasonRating),
		byHash:     make(map[string][]*models.RankingMatchAudit),
		auditKeys:  make(map[auditKey]struct{}),
	}
}

// journal holds the undo steps of one transaction
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Store is an in-memory repository.Store
type Store struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
	live *repository.Repositories
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{data: newData(), now: time.Now}
	v := &view{lock: &s.mu, data: s.data, now: s.clock}
	s.live = v.repositories()
	return s
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// Repositories returns repositories that read and write committed data directly
func (s *Store) Repositories() *repository.Repositories {
	return s.live
}

// WithinTx runs fn with the store locked. If fn fails or panics its writes are undone.
// Transactions are serialized and readers outside them never see partial writes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	j := &journal{}
	committed := false
	defer func() {
		if !committed {
			j.rollback()
		}
	}()

	v := &view{lock: noopLocker{}, data: s.data, now: s.clock, journal: j}
	if err := fn(ctx, v.repositories()); err != nil {
		return err
	}
	committed = true
	return nil
}

// Counts returns the number of athletes, season ratings and audit rows committed
func (s *Store) Counts() (athletes, seasonRatings, audits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.athletes), len(s.data.ratings), s.data.auditCount
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// view binds repositories to the data. journal is nil outside a transaction.
type view struct {
	lock    sync.Locker
	data    *data
	now     func() time.Time
	journal *journal
}

func (v *view) repositories() *repository.Repositories {
	return &repository.Repositories{
		Athletes:      &athleteRepo{v},
		SeasonRatings: &seasonRatingRepo{v},
		Audits:        &auditRepo{v},
	}
}

type athleteRepo struct{ v *view }

func (r *athleteRepo) GetByIdentity(ctx context.Context, key models.AthleteKey) (*models.Athlete, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	id, ok := d.identities[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *d.athletes[id]
	return &cp, nil
}

func (r *athleteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Athlete, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	a, ok := r.v.data.athletes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *athleteRepo) Create(ctx context.Context, athlete *models.Athlete) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	key := athlete.Key()
	if _, exists := d.identities[key]; exists {
		return fmt.Errorf("failed to create athlete %s: %w", athlete.FullName(), models.ErrDuplicateKey)
	}
	if athlete.ID == uuid.Nil {
		athlete.ID = uuid.New()
	}
	athlete.CreatedAt = r.v.now()
	athlete.UpdatedAt = athlete.CreatedAt

	cp := *athlete
	d.athletes[athlete.ID] = &cp
	d.identities[key] = athlete.ID
	id := athlete.ID
	r.v.journal.record(func() {
		delete(d.athletes, id)
		delete(d.identities, key)
	})
	return nil
}

func (r *athleteRepo) UpdateRatings(ctx context.Context, athlete *models.Athlete) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	stored, ok := r.v.data.athletes[athlete.ID]
	if !ok {
		return models.ErrNotFound
	}
	prev := *stored
	r.v.journal.record(func() { *stored = prev })
	stored.Elo = athlete.Elo
	stored.GlickoRating = athlete.GlickoRating
	stored.GlickoRD = athlete.GlickoRD
	stored.GlickoVolatility = athlete.GlickoVolatility
	stored.UpdatedAt = r.v.now()
	athlete.UpdatedAt = stored.UpdatedAt
	return nil
}

type seasonRatingRepo struct{ v *view }

func (r *seasonRatingRepo) Get(ctx context.Context, key models.SeasonRatingKey) (*models.SeasonRating, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	sr, ok := r.v.data.ratings[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *sr
	return &cp, nil
}

func (r *seasonRatingRepo) Create(ctx context.Context, rating *models.SeasonRating) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	key := rating.Key()
	if _, exists := d.ratings[key]; exists {
		return fmt.Errorf("failed to create season rating: %w", models.ErrDuplicateKey)
	}
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	rating.CreatedAt = r.v.now()
	rating.UpdatedAt = rating.CreatedAt

	cp := *rating
	d.ratings[key] = &cp
	r.v.journal.record(func() { delete(d.ratings, key) })
	return nil
}

func (r *seasonRatingRepo) Update(ctx context.Context, rating *models.SeasonRating) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	key := rating.Key()
	stored, ok := d.ratings[key]
	if !ok || stored.ID != rating.ID {
		return models.ErrNotFound
	}
	rating.UpdatedAt = r.v.now()
	cp := *rating
	d.ratings[key] = &cp
	r.v.journal.record(func() { d.ratings[key] = stored })
	return nil
}

func (r *seasonRatingRepo) ListLeaders(ctx context.Context, seasonYear int, weightClass string, limit int) ([]*models.LeaderboardEntry, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	var matches []*models.SeasonRating
	for _, sr := range d.ratings {
		if sr.SeasonYear == seasonYear && sr.WeightClass == weightClass {
			matches = append(matches, sr)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].FinalElo != matches[j].FinalElo {
			return matches[i].FinalElo > matches[j].FinalElo
		}
		if matches[i].Wins != matches[j].Wins {
			return matches[i].Wins > matches[j].Wins
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	entries := make([]*models.LeaderboardEntry, 0, len(matches))
	for i, sr := range matches {
		entry := &models.LeaderboardEntry{Rank: i + 1, Rating: *sr}
		if a, ok := d.athletes[sr.AthleteID]; ok {
			entry.Athlete = *a
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type auditRepo struct{ v *view }

func (r *auditRepo) ExistsByHash(ctx context.Context, matchHash string) (bool, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	return len(r.v.data.byHash[matchHash]) > 0, nil
}

func (r *auditRepo) Insert(ctx context.Context, audit *models.RankingMatchAudit) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	d := r.v.data

	key := auditKey{matchHash: audit.MatchHash, athleteID: audit.AthleteID}
	if _, exists := d.auditKeys[key]; exists {
		return fmt.Errorf("audit for match %s: %w", audit.MatchHash, models.ErrDuplicateKey)
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	audit.CreatedAt = r.v.now()

	cp := *audit
	d.byHash[audit.MatchHash] = append(d.byHash[audit.MatchHash], &cp)
	d.auditKeys[key] = struct{}{}
	d.auditCount++
	r.v.journal.record(func() {
		rows := d.byHash[key.matchHash]
		if len(rows) <= 1 {
			delete(d.byHash, key.matchHash)
		} else {
			d.byHash[key.matchHash] = rows[:len(rows)-1]
		}
		delete(d.auditKeys, key)
		d.auditCount--
	})
	return nil
}

func (r *auditRepo) ListByHash(ctx context.Context, matchHash string) ([]*models.RankingMatchAudit, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	var out []*models.RankingMatchAudit
	for _, a := range r.v.data.byHash[matchHash] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
