package services

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
	"github.com/showmanfest/luckydraw/storage"
)

// fakeStore — in-memory замена Postgres для тестов сервисного слоя.
// Rows are stored by value; repo methods hand out copies so a service
// mutating a returned struct cannot bypass the repo write path.
type fakeStore struct {
	participants map[string]models.Participant
	prizes       map[string]models.Prize
	winners      map[string]models.Winner
	settings     map[string]string
	wonSeq       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		participants: make(map[string]models.Participant),
		prizes:       make(map[string]models.Prize),
		winners:      make(map[string]models.Winner),
		settings:     make(map[string]string),
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	cp.wonSeq = s.wonSeq
	for k, v := range s.participants {
		cp.participants[k] = v
	}
	for k, v := range s.prizes {
		cp.prizes[k] = v
	}
	for k, v := range s.winners {
		cp.winners[k] = v
	}
	for k, v := range s.settings {
		cp.settings[k] = v
	}
	return cp
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.participants = snap.participants
	s.prizes = snap.prizes
	s.winners = snap.winners
	s.settings = snap.settings
	s.wonSeq = snap.wonSeq
}

// fakeTxRunner снимает снапшот стора и откатывает его при ошибке,
// воспроизводя семантику ROLLBACK настоящего TxRunner.
type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) RunInTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// fakeUploader resolves deterministic URLs without touching object storage.
type fakeUploader struct{}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(context.Context, string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// recordingNotifier собирает broadcast-сообщения вместо отправки в хаб.
type recordingNotifier struct {
	rooms    []string
	messages []interface{}
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.rooms = append(n.rooms, roomID)
	n.messages = append(n.messages, message)
}

// --- participants ---

type fakeParticipantRepo struct {
	store *fakeStore
}

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.store.participants {
		if existing.ExternalID == p.ExternalID {
			return repositories.ErrParticipantExternalIDConflict
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.store.participants[p.ID] = *p
	return nil
}

func (r *fakeParticipantRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, participants []*models.Participant) error {
	for _, p := range participants {
		if err := r.Create(ctx, exec, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeParticipantRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Participant, error) {
	p, ok := r.store.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return &p, nil
}

func (r *fakeParticipantRepo) FindByExternalID(_ context.Context, _ repositories.SQLExecutor, externalID string) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.ExternalID == externalID {
			cp := p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Participant, error) {
	return r.FindByID(ctx, exec, id)
}

func (r *fakeParticipantRepo) LockByIDs(_ context.Context, _ repositories.SQLExecutor, ids []string) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := r.store.participants[id]
		if !ok {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	if len(out) != len(ids) {
		return nil, repositories.ErrParticipantNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) list(filter func(models.Participant) bool) []*models.Participant {
	out := make([]*models.Participant, 0)
	for _, p := range r.store.participants {
		if filter(p) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeParticipantRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]*models.Participant, error) {
	return r.list(func(models.Participant) bool { return true }), nil
}

func (r *fakeParticipantRepo) ListEligible(_ context.Context, _ repositories.SQLExecutor) ([]*models.Participant, error) {
	return r.list(func(p models.Participant) bool { return p.CheckedIn && !p.IsWinner }), nil
}

func (r *fakeParticipantRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	existing, ok := r.store.participants[p.ID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	for id, other := range r.store.participants {
		if id != p.ID && other.ExternalID == p.ExternalID {
			return repositories.ErrParticipantExternalIDConflict
		}
	}
	existing.Name = p.Name
	existing.ExternalID = p.ExternalID
	existing.Category = p.Category
	existing.EmploymentType = p.EmploymentType
	r.store.participants[p.ID] = existing
	return nil
}

func (r *fakeParticipantRepo) SetCheckedIn(_ context.Context, _ repositories.SQLExecutor, id string) error {
	p, ok := r.store.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.CheckedIn = true
	r.store.participants[id] = p
	return nil
}

func (r *fakeParticipantRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, id string, isWinner bool) error {
	p, ok := r.store.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.IsWinner = isWinner
	r.store.participants[id] = p
	return nil
}

func (r *fakeParticipantRepo) ResetAllWinners(_ context.Context, _ repositories.SQLExecutor) error {
	for id, p := range r.store.participants {
		p.IsWinner = false
		r.store.participants[id] = p
	}
	return nil
}

func (r *fakeParticipantRepo) ResetAllCheckIns(_ context.Context, _ repositories.SQLExecutor) error {
	for id, p := range r.store.participants {
		p.CheckedIn = false
		r.store.participants[id] = p
	}
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	if _, ok := r.store.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.store.participants, id)
	return nil
}

func (r *fakeParticipantRepo) Count(_ context.Context, _ repositories.SQLExecutor, checkedInOnly bool) (int, error) {
	count := 0
	for _, p := range r.store.participants {
		if !checkedInOnly || p.CheckedIn {
			count++
		}
	}
	return count, nil
}

// --- prizes ---

type fakePrizeRepo struct {
	store *fakeStore
}

func (r *fakePrizeRepo) Create(_ context.Context, _ repositories.SQLExecutor, prize *models.Prize) error {
	for _, existing := range r.store.prizes {
		if existing.Name == prize.Name {
			return repositories.ErrPrizeNameConflict
		}
	}
	if prize.CreatedAt.IsZero() {
		prize.CreatedAt = time.Now()
	}
	r.store.prizes[prize.ID] = *prize
	return nil
}

func (r *fakePrizeRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Prize, error) {
	p, ok := r.store.prizes[id]
	if !ok {
		return nil, repositories.ErrPrizeNotFound
	}
	return &p, nil
}

func (r *fakePrizeRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Prize, error) {
	return r.FindByID(ctx, exec, id)
}

func (r *fakePrizeRepo) LockByIDs(_ context.Context, _ repositories.SQLExecutor, ids []string) ([]*models.Prize, error) {
	out := make([]*models.Prize, 0, len(ids))
	for _, id := range ids {
		p, ok := r.store.prizes[id]
		if !ok {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	if len(out) != len(ids) {
		return nil, repositories.ErrPrizeNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePrizeRepo) list(filter func(models.Prize) bool, byID bool) []*models.Prize {
	out := make([]*models.Prize, 0)
	for _, p := range r.store.prizes {
		if filter(p) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if byID {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *fakePrizeRepo) LockAvailable(_ context.Context, _ repositories.SQLExecutor) ([]*models.Prize, error) {
	return r.list(func(p models.Prize) bool { return p.CurrentQuota > 0 }, true), nil
}

func (r *fakePrizeRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]*models.Prize, error) {
	return r.list(func(models.Prize) bool { return true }, false), nil
}

func (r *fakePrizeRepo) ListAvailable(_ context.Context, _ repositories.SQLExecutor) ([]*models.Prize, error) {
	return r.list(func(p models.Prize) bool { return p.CurrentQuota > 0 }, false), nil
}

func (r *fakePrizeRepo) Update(_ context.Context, _ repositories.SQLExecutor, prize *models.Prize) error {
	existing, ok := r.store.prizes[prize.ID]
	if !ok {
		return repositories.ErrPrizeNotFound
	}
	for id, other := range r.store.prizes {
		if id != prize.ID && other.Name == prize.Name {
			return repositories.ErrPrizeNameConflict
		}
	}
	if prize.CurrentQuota < 0 {
		return repositories.ErrPrizeQuotaNegative
	}
	existing.Name = prize.Name
	existing.InitialQuota = prize.InitialQuota
	existing.CurrentQuota = prize.CurrentQuota
	r.store.prizes[prize.ID] = existing
	return nil
}

func (r *fakePrizeRepo) UpdateImageKey(_ context.Context, _ repositories.SQLExecutor, id string, imageKey *string) error {
	p, ok := r.store.prizes[id]
	if !ok {
		return repositories.ErrPrizeNotFound
	}
	p.ImageKey = imageKey
	r.store.prizes[id] = p
	return nil
}

func (r *fakePrizeRepo) AdjustQuota(_ context.Context, _ repositories.SQLExecutor, id string, delta int) error {
	p, ok := r.store.prizes[id]
	if !ok {
		return repositories.ErrPrizeNotFound
	}
	if p.CurrentQuota+delta < 0 {
		return repositories.ErrPrizeQuotaNegative
	}
	p.CurrentQuota += delta
	r.store.prizes[id] = p
	return nil
}

func (r *fakePrizeRepo) ResetQuotas(_ context.Context, _ repositories.SQLExecutor) error {
	for id, p := range r.store.prizes {
		p.CurrentQuota = p.InitialQuota
		r.store.prizes[id] = p
	}
	return nil
}

func (r *fakePrizeRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	if _, ok := r.store.prizes[id]; !ok {
		return repositories.ErrPrizeNotFound
	}
	delete(r.store.prizes, id)
	return nil
}

func (r *fakePrizeRepo) CountAndStock(_ context.Context, _ repositories.SQLExecutor) (int, int, error) {
	stock := 0
	for _, p := range r.store.prizes {
		stock += p.CurrentQuota
	}
	return len(r.store.prizes), stock, nil
}

// --- winners ---

type fakeWinnerRepo struct {
	store *fakeStore
}

func (r *fakeWinnerRepo) Create(_ context.Context, _ repositories.SQLExecutor, winner *models.Winner) error {
	r.store.wonSeq++
	winner.WonAt = time.Unix(0, r.store.wonSeq)
	// Persist only the row columns, as the real table does.
	r.store.winners[winner.ID] = models.Winner{
		ID:            winner.ID,
		ParticipantID: winner.ParticipantID,
		PrizeID:       winner.PrizeID,
		WonAt:         winner.WonAt,
	}
	return nil
}

func (r *fakeWinnerRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Winner, error) {
	w, ok := r.store.winners[id]
	if !ok {
		return nil, repositories.ErrWinnerNotFound
	}
	return &w, nil
}

func (r *fakeWinnerRepo) FindByIDs(_ context.Context, _ repositories.SQLExecutor, ids []string) ([]*models.Winner, error) {
	out := make([]*models.Winner, 0, len(ids))
	for _, id := range ids {
		if w, ok := r.store.winners[id]; ok {
			cp := w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeWinnerRepo) FindByParticipant(_ context.Context, _ repositories.SQLExecutor, participantID string) (*models.Winner, error) {
	var latest *models.Winner
	for _, w := range r.store.winners {
		if w.ParticipantID != participantID {
			continue
		}
		if latest == nil || w.WonAt.After(latest.WonAt) {
			cp := w
			latest = &cp
		}
	}
	if latest == nil {
		return nil, repositories.ErrWinnerNotFound
	}
	prize, ok := r.store.prizes[latest.PrizeID]
	if !ok {
		return nil, repositories.ErrWinnerNotFound
	}
	prizeCopy := prize
	latest.Prize = &prizeCopy
	return latest, nil
}

func (r *fakeWinnerRepo) ListWithDetails(_ context.Context, _ repositories.SQLExecutor) ([]*models.Winner, error) {
	out := make([]*models.Winner, 0, len(r.store.winners))
	for _, w := range r.store.winners {
		cp := w
		if p, ok := r.store.participants[w.ParticipantID]; ok {
			pCopy := p
			cp.Participant = &pCopy
		}
		if pr, ok := r.store.prizes[w.PrizeID]; ok {
			prCopy := pr
			cp.Prize = &prCopy
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WonAt.After(out[j].WonAt) })
	return out, nil
}

func (r *fakeWinnerRepo) DeleteByIDs(_ context.Context, _ repositories.SQLExecutor, ids []string) error {
	deleted := 0
	for _, id := range ids {
		if _, ok := r.store.winners[id]; ok {
			delete(r.store.winners, id)
			deleted++
		}
	}
	if deleted != len(ids) {
		return repositories.ErrWinnerNotFound
	}
	return nil
}

func (r *fakeWinnerRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.store.winners = make(map[string]models.Winner)
	return nil
}

func (r *fakeWinnerRepo) CountByPrize(_ context.Context, _ repositories.SQLExecutor, prizeID string) (int, error) {
	count := 0
	for _, w := range r.store.winners {
		if w.PrizeID == prizeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeWinnerRepo) Count(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	return len(r.store.winners), nil
}

// --- settings ---

type fakeSettingRepo struct {
	store *fakeStore
}

func (r *fakeSettingRepo) Get(_ context.Context, _ repositories.SQLExecutor, key string) (string, error) {
	value, ok := r.store.settings[key]
	if !ok {
		return "", repositories.ErrSettingNotFound
	}
	return value, nil
}

func (r *fakeSettingRepo) LockValue(ctx context.Context, exec repositories.SQLExecutor, key string) (string, error) {
	return r.Get(ctx, exec, key)
}

func (r *fakeSettingRepo) Set(_ context.Context, _ repositories.SQLExecutor, key, value string) error {
	if _, ok := r.store.settings[key]; !ok {
		return repositories.ErrSettingNotFound
	}
	r.store.settings[key] = value
	return nil
}

// --- seeding helpers ---

func seedParticipant(store *fakeStore, id, name string, checkedIn, isWinner bool) {
	store.participants[id] = models.Participant{
		ID:         id,
		Name:       name,
		ExternalID: "EMP-" + id,
		CheckedIn:  checkedIn,
		IsWinner:   isWinner,
		CreatedAt:  time.Now(),
	}
}

func seedPrize(store *fakeStore, id, name string, initial, current int) {
	store.prizes[id] = models.Prize{
		ID:           id,
		Name:         name,
		InitialQuota: initial,
		CurrentQuota: current,
		CreatedAt:    time.Now(),
	}
}

func setPrizeImageKey(store *fakeStore, id, key string) {
	p := store.prizes[id]
	p.ImageKey = &key
	store.prizes[id] = p
}

func seedWinner(store *fakeStore, id, participantID, prizeID string) {
	store.wonSeq++
	store.winners[id] = models.Winner{
		ID:            id,
		ParticipantID: participantID,
		PrizeID:       prizeID,
		WonAt:         time.Unix(0, store.wonSeq),
	}
}
