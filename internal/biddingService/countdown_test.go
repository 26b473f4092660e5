package bidding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vehicle-auction/internal/broadcast"
	model "vehicle-auction/internal/models"
	"vehicle-auction/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func countdownFixture(t *testing.T) (*repository.MemoryRepo, *broadcast.Hub[model.AuctionSnapshot], *BiddingService) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	hub := broadcast.NewHub[model.AuctionSnapshot](4)
	service := NewBiddingService(repo, WithClock(func() time.Time { return testStart }), WithBroadcaster(hub))

	createAuction(t, service, "open", 1000000, reserve(2000000), 26*time.Hour+5*time.Minute)
	createAuction(t, service, "ending-soon", 1000000, nil, 45*time.Minute)
	createAuction(t, service, "just-ended", 1000000, nil, -30*time.Second)
	createAuction(t, service, "long-ended", 1000000, nil, -2*time.Hour)
	return repo, hub, service
}

func TestCountdownPublisher_Tick(t *testing.T) {
	repo, hub, service := countdownFixture(t)
	defer hub.Close()

	_, err := service.PlaceBid(context.Background(), "open", "bidder-1", 2000000, "")
	require.NoError(t, err)

	publisher := NewCountdownPublisher(repo, hub, time.Minute)

	snaps, err := publisher.Tick(testStart)
	require.NoError(t, err)

	byID := lo.SliceToMap(snaps, func(s model.AuctionSnapshot) (string, model.AuctionSnapshot) {
		return s.AuctionID, s
	})
	require.Len(t, byID, 3)
	require.NotContains(t, byID, "long-ended")

	require.Equal(t, model.StatusReserveMet, byID["open"].Status)
	require.Equal(t, "1d 2h 5m", byID["open"].TimeLeft)
	require.NotNil(t, byID["open"].WinningBid)
	require.Equal(t, model.StatusEndingSoon, byID["ending-soon"].Status)
	require.Equal(t, "45m", byID["ending-soon"].TimeLeft)
	require.Equal(t, model.StatusEnded, byID["just-ended"].Status)
	require.Equal(t, "Ended", byID["just-ended"].TimeLeft)
	require.Zero(t, byID["just-ended"].TimeRemainingMs)

	// advisory display string is cached without touching the ledger
	a, err := repo.GetAuction("ending-soon")
	require.NoError(t, err)
	require.Equal(t, "45m", a.CachedTimeLeft)
	require.Zero(t, a.BidCount)

	again, err := publisher.Tick(testStart)
	require.NoError(t, err)
	require.Equal(t, snaps, again)

	// one interval later the ended auction is no longer published
	later, err := publisher.Tick(testStart.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, later, 2)
}

func TestCountdownPublisher_PushesToWatchers(t *testing.T) {
	repo, hub, _ := countdownFixture(t)
	defer hub.Close()

	stream, err := hub.Subscribe("ending-soon")
	require.NoError(t, err)

	publisher := NewCountdownPublisher(repo, hub, time.Minute)
	_, err = publisher.Tick(testStart.Add(15 * time.Minute))
	require.NoError(t, err)

	select {
	case snap := <-stream:
		require.Equal(t, "30m", snap.TimeLeft)
		require.Equal(t, (30 * time.Minute).Milliseconds(), snap.TimeRemainingMs)
	case <-time.After(time.Second):
		t.Fatal("no countdown snapshot")
	}
}

func TestCountdownPublisher_DoesNotWaitOnBids(t *testing.T) {
	repo, hub, service := countdownFixture(t)
	defer hub.Close()

	release, err := service.acquire(context.Background(), "open")
	require.NoError(t, err)
	defer release()

	publisher := NewCountdownPublisher(repo, hub, time.Minute)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = publisher.Tick(testStart)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick blocked on a bid in flight")
	}
}

func TestCountdownPublisher_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockAuctionDB(ctrl)
	mockRepo.EXPECT().ListAuctions().Return(nil, errors.New("unreachable"))

	publisher := NewCountdownPublisher(mockRepo, broadcast.NewHub[model.AuctionSnapshot](1), time.Minute)
	_, err := publisher.Tick(testStart)
	require.Error(t, err)
}

func TestCountdownPublisher_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := repository.NewMemoryRepo()
	hub := broadcast.NewHub[model.AuctionSnapshot](4)
	defer hub.Close()

	// Run ticks on the wall clock
	service := NewBiddingService(repo, WithBroadcaster(hub))
	createAuction(t, service, "open", 1000000, nil, time.Hour)

	stream, err := hub.Subscribe("open")
	require.NoError(t, err)

	publisher := NewCountdownPublisher(repo, hub, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		publisher.Run(ctx)
	}()

	select {
	case snap := <-stream:
		require.Equal(t, "open", snap.AuctionID)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not tick")
	}

	cancel()
	wg.Wait()
}

func TestCountdownPublisher_StaleTickDoesNotRewindWatchers(t *testing.T) {
	hub := broadcast.NewHub[model.AuctionSnapshot](4)
	defer hub.Close()

	ctx := context.Background()
	repo := &interleavingRepo{AuctionDB: repository.NewMemoryRepo(), after: true}
	service := NewBiddingService(repo, WithClock(func() time.Time { return testStart }), WithBroadcaster(hub))
	createAuction(t, service, "auction-1", 15000000, reserve(20000000), 24*time.Hour)
	_, err := service.PlaceBid(ctx, "auction-1", "bidder-1", 18500000, "")
	require.NoError(t, err)

	stream, err := hub.Subscribe("auction-1")
	require.NoError(t, err)

	// the tick reads the auction, then a bid meeting the reserve commits and is pushed before the
	// tick publishes what it read
	repo.onView = func() {
		if _, err := service.PlaceBid(ctx, "auction-1", "bidder-2", 20000000, ""); err != nil {
			t.Errorf("interleaved bid: %v", err)
		}
	}
	publisher := NewCountdownPublisher(repo, service.Broadcaster(), time.Minute)

	stale, err := publisher.Tick(testStart)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, int64(18500000), stale[0].CurrentBid)

	_, err = publisher.Tick(testStart.Add(time.Minute))
	require.NoError(t, err)

	var pushes []model.AuctionSnapshot
	for len(pushes) < 2 {
		select {
		case snap := <-stream:
			pushes = append(pushes, snap)
		case <-time.After(time.Second):
			t.Fatalf("got %d pushes, want 2", len(pushes))
		}
	}

	for i, snap := range pushes {
		require.Equal(t, int64(20000000), snap.CurrentBid, "push %d", i)
		require.True(t, snap.ReserveMet, "push %d", i)
		require.Equal(t, 2, snap.BidCount, "push %d", i)
	}
	require.Equal(t, "23h 59m", pushes[1].TimeLeft)
}

func TestSnapshotSequencer(t *testing.T) {
	hub := broadcast.NewHub[model.AuctionSnapshot](4)
	defer hub.Close()

	seq := NewSnapshotSequencer(hub)
	require.Same(t, seq, NewSnapshotSequencer(seq))

	stream, err := seq.Subscribe("auction-1")
	require.NoError(t, err)

	snapshot := func(bidCount int, timeLeft string) model.AuctionSnapshot {
		return model.AuctionSnapshot{Auction: model.Auction{AuctionID: "auction-1", BidCount: bidCount}, TimeLeft: timeLeft}
	}
	seq.Publish("auction-1", snapshot(2, "10m"))
	seq.Publish("auction-1", snapshot(1, "10m"))
	seq.Publish("auction-1", snapshot(2, "9m"))
	seq.Publish("auction-1", snapshot(3, "9m"))
	// topics are ordered independently
	seq.Publish("auction-2", snapshot(0, "1m"))

	var got []string
	for len(got) < 3 {
		select {
		case snap := <-stream:
			got = append(got, fmt.Sprintf("%d/%s", snap.BidCount, snap.TimeLeft))
		case <-time.After(time.Second):
			t.Fatalf("got %v, want 3 snapshots", got)
		}
	}
	require.Equal(t, []string{"2/10m", "2/9m", "3/9m"}, got)

	seq.Unsubscribe("auction-1", stream)
	require.Zero(t, hub.Subscribers("auction-1"))
}
