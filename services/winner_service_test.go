package services

import (
	"context"
	"errors"
	"testing"
)

func newWinnerFixture() (*fakeStore, WinnerService, *recordingNotifier) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	svc := NewWinnerService(
		&fakeTxRunner{store: store},
		&fakeParticipantRepo{store: store},
		&fakePrizeRepo{store: store},
		&fakeWinnerRepo{store: store},
		&fakeUploader{},
		notifier,
	)
	return store, svc, notifier
}

func TestConfirmWinners(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms a batch and takes the quota", func(t *testing.T) {
		store, svc, notifier := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedParticipant(store, "p2", "Boris", true, false)
		seedPrize(store, "pr1", "Headphones", 5, 5)

		result, err := svc.ConfirmWinners(ctx, []string{"p2", "p1"}, "pr1")
		if err != nil {
			t.Fatalf("ConfirmWinners failed: %v", err)
		}
		if len(result.Winners) != 2 {
			t.Fatalf("expected 2 winner records, got %d", len(result.Winners))
		}
		if result.RemainingQuota != 3 {
			t.Errorf("expected remaining quota 3, got %d", result.RemainingQuota)
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 3 {
			t.Errorf("expected stored quota 3, got %d", got)
		}
		for _, id := range []string{"p1", "p2"} {
			if !store.participants[id].IsWinner {
				t.Errorf("participant %s must be flagged winner", id)
			}
		}
		if len(store.winners) != 2 {
			t.Errorf("expected 2 winner rows, got %d", len(store.winners))
		}
		if len(notifier.rooms) != 1 || notifier.rooms[0] != StageRoom {
			t.Errorf("expected one stage broadcast, got %v", notifier.rooms)
		}
	})

	t.Run("confirmed winners carry the prize image url", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedPrize(store, "pr1", "Headphones", 5, 5)
		setPrizeImageKey(store, "pr1", "prizes/pr1/cover")

		result, err := svc.ConfirmWinners(ctx, []string{"p1"}, "pr1")
		if err != nil {
			t.Fatalf("ConfirmWinners failed: %v", err)
		}
		w := result.Winners[0]
		if w.Prize == nil || w.Prize.ImageURL == nil {
			t.Fatalf("expected the prize image url on the confirmed winner, got %+v", w.Prize)
		}
		if got := *w.Prize.ImageURL; got != "https://cdn.test/prizes/pr1/cover" {
			t.Errorf("unexpected image url %q", got)
		}
	})

	t.Run("duplicate ids count once", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedPrize(store, "pr1", "Headphones", 1, 1)

		result, err := svc.ConfirmWinners(ctx, []string{"p1", "p1", "p1"}, "pr1")
		if err != nil {
			t.Fatalf("ConfirmWinners failed: %v", err)
		}
		if len(result.Winners) != 1 {
			t.Fatalf("expected 1 winner record, got %d", len(result.Winners))
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 0 {
			t.Errorf("expected one unit of quota taken, got %d", got)
		}
	})

	t.Run("insufficient quota fails without changes", func(t *testing.T) {
		store, svc, notifier := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedParticipant(store, "p2", "Boris", true, false)
		seedParticipant(store, "p3", "Clara", true, false)
		seedPrize(store, "pr1", "Headphones", 2, 2)

		_, err := svc.ConfirmWinners(ctx, []string{"p1", "p2", "p3"}, "pr1")
		if !errors.Is(err, ErrInsufficientQuota) {
			t.Fatalf("expected ErrInsufficientQuota, got %v", err)
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 2 {
			t.Errorf("quota must be untouched, got %d", got)
		}
		if len(store.winners) != 0 {
			t.Errorf("expected no winner rows, got %d", len(store.winners))
		}
		if len(notifier.rooms) != 0 {
			t.Error("failed confirm must not broadcast")
		}
	})

	t.Run("participant already a winner", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedParticipant(store, "p2", "Boris", true, true)
		seedPrize(store, "pr1", "Headphones", 5, 5)

		_, err := svc.ConfirmWinners(ctx, []string{"p1", "p2"}, "pr1")
		if !errors.Is(err, ErrParticipantAlreadyWinner) {
			t.Fatalf("expected ErrParticipantAlreadyWinner, got %v", err)
		}
		if len(store.winners) != 0 {
			t.Error("nothing may be written when the batch is rejected")
		}
	})

	t.Run("unknown participant in the batch", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedPrize(store, "pr1", "Headphones", 5, 5)

		_, err := svc.ConfirmWinners(ctx, []string{"p1", "ghost"}, "pr1")
		if !errors.Is(err, ErrParticipantNotFound) {
			t.Fatalf("expected ErrParticipantNotFound, got %v", err)
		}
	})

	t.Run("unknown prize", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)

		_, err := svc.ConfirmWinners(ctx, []string{"p1"}, "ghost")
		if !errors.Is(err, ErrPrizeNotFound) {
			t.Fatalf("expected ErrPrizeNotFound, got %v", err)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		_, svc, _ := newWinnerFixture()
		if _, err := svc.ConfirmWinners(ctx, nil, "pr1"); !errors.Is(err, ErrNoWinnersGiven) {
			t.Fatalf("expected ErrNoWinnersGiven, got %v", err)
		}
	})
}

func TestRemoveWinners(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm then bulk remove restores everything", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, false)
		seedParticipant(store, "p2", "Boris", true, false)
		seedPrize(store, "pr1", "Headphones", 5, 5)

		result, err := svc.ConfirmWinners(ctx, []string{"p1", "p2"}, "pr1")
		if err != nil {
			t.Fatalf("ConfirmWinners failed: %v", err)
		}

		ids := []string{result.Winners[0].ID, result.Winners[1].ID}
		if err := svc.RemoveWinnersBulk(ctx, ids); err != nil {
			t.Fatalf("RemoveWinnersBulk failed: %v", err)
		}

		if got := store.prizes["pr1"].CurrentQuota; got != 5 {
			t.Errorf("expected quota restored to 5, got %d", got)
		}
		for _, id := range []string{"p1", "p2"} {
			if store.participants[id].IsWinner {
				t.Errorf("participant %s must no longer be flagged winner", id)
			}
			if !store.participants[id].CheckedIn {
				t.Errorf("undo must not touch the check-in flag of %s", id)
			}
		}
		if len(store.winners) != 0 {
			t.Errorf("expected no winner rows left, got %d", len(store.winners))
		}
	})

	t.Run("single remove restores one unit", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, true)
		seedPrize(store, "pr1", "Headphones", 5, 4)
		seedWinner(store, "w1", "p1", "pr1")

		if err := svc.RemoveWinner(ctx, "w1"); err != nil {
			t.Fatalf("RemoveWinner failed: %v", err)
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 5 {
			t.Errorf("expected quota 5, got %d", got)
		}
		if store.participants["p1"].IsWinner {
			t.Error("winner flag must be cleared")
		}
	})

	t.Run("bulk remove across prizes restores each quota", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, true)
		seedParticipant(store, "p2", "Boris", true, true)
		seedParticipant(store, "p3", "Clara", true, true)
		seedPrize(store, "pr1", "Headphones", 5, 3)
		seedPrize(store, "pr2", "Speaker", 2, 1)
		seedWinner(store, "w1", "p1", "pr1")
		seedWinner(store, "w2", "p2", "pr1")
		seedWinner(store, "w3", "p3", "pr2")

		if err := svc.RemoveWinnersBulk(ctx, []string{"w1", "w2", "w3"}); err != nil {
			t.Fatalf("RemoveWinnersBulk failed: %v", err)
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 5 {
			t.Errorf("expected pr1 quota 5, got %d", got)
		}
		if got := store.prizes["pr2"].CurrentQuota; got != 2 {
			t.Errorf("expected pr2 quota 2, got %d", got)
		}
	})

	t.Run("one unknown id fails the whole batch", func(t *testing.T) {
		store, svc, _ := newWinnerFixture()
		seedParticipant(store, "p1", "Anna", true, true)
		seedPrize(store, "pr1", "Headphones", 5, 4)
		seedWinner(store, "w1", "p1", "pr1")

		err := svc.RemoveWinnersBulk(ctx, []string{"w1", "ghost"})
		if !errors.Is(err, ErrWinnerNotFound) {
			t.Fatalf("expected ErrWinnerNotFound, got %v", err)
		}
		if _, ok := store.winners["w1"]; !ok {
			t.Error("valid record must survive a failed batch")
		}
		if !store.participants["p1"].IsWinner {
			t.Error("winner flag must survive a failed batch")
		}
		if got := store.prizes["pr1"].CurrentQuota; got != 4 {
			t.Errorf("quota must be untouched by a failed batch, got %d", got)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		_, svc, _ := newWinnerFixture()
		if err := svc.RemoveWinnersBulk(ctx, nil); !errors.Is(err, ErrNoWinnersGiven) {
			t.Fatalf("expected ErrNoWinnersGiven, got %v", err)
		}
	})
}

func TestListWinners(t *testing.T) {
	store, svc, _ := newWinnerFixture()
	seedParticipant(store, "p1", "Anna", true, true)
	seedPrize(store, "pr1", "Headphones", 5, 4)
	seedWinner(store, "w1", "p1", "pr1")

	winners, err := svc.ListWinners(context.Background())
	if err != nil {
		t.Fatalf("ListWinners failed: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("expected 1 winner, got %d", len(winners))
	}
	w := winners[0]
	if w.Participant == nil || w.Participant.Name != "Anna" {
		t.Errorf("expected participant details joined in, got %+v", w.Participant)
	}
	if w.Prize == nil || w.Prize.Name != "Headphones" {
		t.Errorf("expected prize details joined in, got %+v", w.Prize)
	}
}

func TestListWinnersResolvesPrizeImage(t *testing.T) {
	store, svc, _ := newWinnerFixture()
	seedParticipant(store, "p1", "Anna", true, true)
	seedPrize(store, "pr1", "Headphones", 5, 4)
	setPrizeImageKey(store, "pr1", "prizes/pr1/cover")
	seedWinner(store, "w1", "p1", "pr1")

	winners, err := svc.ListWinners(context.Background())
	if err != nil {
		t.Fatalf("ListWinners failed: %v", err)
	}
	if winners[0].Prize == nil || winners[0].Prize.ImageURL == nil {
		t.Fatalf("expected the prize image url in the listing, got %+v", winners[0].Prize)
	}
	if got := *winners[0].Prize.ImageURL; got != "https://cdn.test/prizes/pr1/cover" {
		t.Errorf("unexpected image url %q", got)
	}
}
