package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []watcher.Event
}

func (p *recordingPublisher) Notify(e watcher.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []watcher.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []watcher.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func okResponse(display string) *models.GatewayResponse {
	return models.ParseGatewayResponse(200, []byte(`{"result":"`+display+`"}`))
}

func TestRun_Success(t *testing.T) {
	pub := &recordingPublisher{}
	c := New("greeting", WithPublisher(pub))
	assert.Equal(t, models.CallIdle, c.State().Status)

	resp, err := c.Run(context.Background(), "getGreeting", func(ctx context.Context) (*models.GatewayResponse, error) {
		assert.True(t, c.Loading())
		assert.Equal(t, models.CallInFlight, c.State().Status)
		return okResponse("hi"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Display())

	st := c.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Equal(t, models.CallSucceeded, st.Status)
	assert.Equal(t, "getGreeting", st.LastCall)
	assert.Equal(t, "hi", st.LastResult.Display())
	assert.Equal(t, []watcher.EventType{watcher.EventCallStarted, watcher.EventCallSucceeded}, pub.types())
	assert.Equal(t, pub.events[0].Call, pub.events[1].Call)
}

func TestRun_FailureThenRetryClearsError(t *testing.T) {
	pub := &recordingPublisher{}
	c := New("token", WithPublisher(pub))

	_, err := c.Run(context.Background(), "mint", func(context.Context) (*models.GatewayResponse, error) {
		return nil, errors.New("insufficient balance")
	})
	require.Error(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Equal(t, models.CallFailed, st.Status)
	assert.Equal(t, "insufficient balance", st.ErrorMessage())

	_, err = c.Run(context.Background(), "mint", func(context.Context) (*models.GatewayResponse, error) {
		assert.Nil(t, c.State().Err, "error is cleared when a new call starts")
		return okResponse("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.CallSucceeded, c.State().Status)
	assert.Equal(t, []watcher.EventType{
		watcher.EventCallStarted, watcher.EventCallFailed,
		watcher.EventCallStarted, watcher.EventCallSucceeded,
	}, pub.types())
}

func TestRun_LoadingWhileAnyCallInFlight(t *testing.T) {
	c := New("airdrop")
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	started := make(chan struct{}, 2)

	var wg sync.WaitGroup
	for _, release := range []chan struct{}{releaseFirst, releaseSecond} {
		wg.Add(1)
		go func(release chan struct{}) {
			defer wg.Done()
			_, _ = c.Run(context.Background(), "claim", func(context.Context) (*models.GatewayResponse, error) {
				started <- struct{}{}
				<-release
				return okResponse("ok"), nil
			})
		}(release)
	}
	<-started
	<-started
	assert.Equal(t, 2, c.State().InFlight)

	close(releaseFirst)
	assert.Eventually(t, func() bool { return c.State().InFlight == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.Loading())

	close(releaseSecond)
	wg.Wait()
	assert.False(t, c.Loading())
}

func TestClose_DiscardsLateCompletion(t *testing.T) {
	pub := &recordingPublisher{}
	c := New("token", WithPublisher(pub))
	c.SetValue("totalSupply", "10")

	inside := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), "totalSupply", func(ctx context.Context) (*models.GatewayResponse, error) {
			close(inside)
			<-ctx.Done()
			return okResponse("999"), nil
		})
		done <- err
	}()

	<-inside
	before := c.State()
	c.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrViewClosed)
	case <-time.After(time.Second):
		t.Fatal("action was not canceled by Close")
	}

	after := c.State()
	assert.Equal(t, before.Status, after.Status)
	assert.Nil(t, after.LastResult)
	c.SetValue("totalSupply", "999")
	assert.Equal(t, "10", c.Value("totalSupply"))
	assert.Equal(t, []watcher.EventType{watcher.EventCallStarted}, pub.types())

	_, err := c.Run(context.Background(), "totalSupply", func(context.Context) (*models.GatewayResponse, error) {
		t.Fatal("action must not run after Close")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrViewClosed)
}

func TestRun_CallerContextCancels(t *testing.T) {
	c := New("greeting")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx, "getGreeting", func(ctx context.Context) (*models.GatewayResponse, error) {
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.CallFailed, c.State().Status)
}

func TestInputs(t *testing.T) {
	c := New("token")
	c.SetInput("amount", "5")
	assert.Equal(t, "5", c.Input("amount"))

	st := c.State()
	st.Inputs["amount"] = "changed"
	assert.Equal(t, "5", c.Input("amount"))
}

func TestRunBackground_LeavesUserOutcome(t *testing.T) {
	pub := &recordingPublisher{}
	c := New("greeting", WithPublisher(pub))

	_, err := c.Run(context.Background(), "setGreeting", func(context.Context) (*models.GatewayResponse, error) {
		return nil, errors.New("Insufficient funds")
	})
	require.Error(t, err)

	resp, err := c.RunBackground(context.Background(), "getGreeting", func(context.Context) (*models.GatewayResponse, error) {
		assert.True(t, c.Loading())
		return okResponse("hello"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Display())

	st := c.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Insufficient funds", st.ErrorMessage())
	assert.Equal(t, models.CallFailed, st.Status)
	assert.Equal(t, "setGreeting", st.LastCall)
	assert.Nil(t, st.LastResult)
	assert.Equal(t, []watcher.EventType{watcher.EventCallStarted, watcher.EventCallFailed}, pub.types())
}

func TestRunBackground_AfterClose(t *testing.T) {
	c := New("token")
	c.Close()
	_, err := c.RunBackground(context.Background(), "totalSupply", func(context.Context) (*models.GatewayResponse, error) {
		t.Fatal("action must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrViewClosed)
}
