package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"seerr_bot/internal/config"
	"seerr_bot/internal/coordinator"
	"seerr_bot/internal/enrich"
	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/model"
	"seerr_bot/internal/rules"
	"seerr_bot/internal/storage"
)

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	updates chan tgbotapi.Update
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {}

// messages returns the text of every sent MessageConfig.
func (f *fakeTelegram) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

type fakeActionClient struct {
	approved []int64
	failIDs  map[int64]bool
}

func (f *fakeActionClient) Approve(_ context.Context, requestID int64) jellyseerr.ActionResult {
	f.approved = append(f.approved, requestID)
	if f.failIDs[requestID] {
		return jellyseerr.ActionResult{Error: "api returned 500"}
	}
	return jellyseerr.ActionResult{Success: true}
}

func (f *fakeActionClient) Deny(_ context.Context, requestID int64, _ string) jellyseerr.ActionResult {
	if f.failIDs[requestID] {
		return jellyseerr.ActionResult{Error: "api returned 500"}
	}
	return jellyseerr.ActionResult{Success: true}
}

type fakeInfoSource struct{}

func (fakeInfoSource) ServerInfo(context.Context) (*jellyseerr.ServerInfo, error) {
	return &jellyseerr.ServerInfo{Version: "2.1.0"}, nil
}

type emptyLister struct{}

func (emptyLister) ListRequests(context.Context, int, *model.Status) (*jellyseerr.RequestPage, error) {
	return &jellyseerr.RequestPage{}, nil
}

type nilDetails struct{}

func (nilDetails) GetDetails(context.Context, int64, model.MediaType) (*jellyseerr.Details, error) {
	return nil, nil
}

func newTestBot(t *testing.T, cfg *config.Config) (*Bot, *fakeTelegram, *fakeActionClient) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := coordinator.New(emptyLister{}, enrich.New(nilDetails{}, log), time.Hour, 50, log)

	client := &fakeActionClient{}
	engine := rules.NewEngine(client, coord, store, log)
	for _, r := range rules.StandardRules(cfg.RatingThreshold, cfg.TrustedUsers) {
		engine.AddRule(r)
	}

	api := &fakeTelegram{updates: make(chan tgbotapi.Update, 8)}
	b := &Bot{
		api:    api,
		coord:  coord,
		engine: engine,
		client: fakeInfoSource{},
		store:  store,
		cfg:    cfg,
		log:    log,
	}
	return b, api, client
}

func commandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: 55},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func lastMessage(t *testing.T, api *fakeTelegram) string {
	t.Helper()
	msgs := api.messages()
	if len(msgs) == 0 {
		t.Fatal("no messages sent")
	}
	return msgs[len(msgs)-1]
}

func TestHandleApprove(t *testing.T) {
	b, api, client := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.handleCommand(context.Background(), commandMessage(1, "/approve 42"))

	if len(client.approved) != 1 || client.approved[0] != 42 {
		t.Errorf("approved = %v, want [42]", client.approved)
	}
	if got := lastMessage(t, api); got != "Request #42 approved." {
		t.Errorf("reply = %q", got)
	}
}

func TestHandleApproveFailure(t *testing.T) {
	b, api, client := newTestBot(t, &config.Config{RatingThreshold: 7.5})
	client.failIDs = map[int64]bool{42: true}

	b.handleCommand(context.Background(), commandMessage(1, "/approve 42"))

	if got := lastMessage(t, api); !strings.Contains(got, "Failed to approve request #42") {
		t.Errorf("reply = %q", got)
	}
}

func TestHandleApproveBadArgs(t *testing.T) {
	b, api, client := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.handleCommand(context.Background(), commandMessage(1, "/approve nope"))

	if len(client.approved) != 0 {
		t.Errorf("unexpected approvals: %v", client.approved)
	}
	if got := lastMessage(t, api); !strings.Contains(got, "Usage:") {
		t.Errorf("reply = %q", got)
	}
}

func TestHandleStatusNoData(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.handleCommand(context.Background(), commandMessage(1, "/status"))

	if got := lastMessage(t, api); !strings.Contains(got, "No data yet") {
		t.Errorf("reply = %q", got)
	}
}

func TestHandleRuleToggle(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{RatingThreshold: 7.5})
	ctx := context.Background()

	b.handleCommand(ctx, commandMessage(1, "/rule on high_rated"))
	if got := lastMessage(t, api); !strings.Contains(got, `"high_rated" enabled`) {
		t.Errorf("reply = %q", got)
	}

	b.handleCommand(ctx, commandMessage(1, "/rules"))
	if got := lastMessage(t, api); !strings.Contains(got, "high_rated (rating threshold) [on]") {
		t.Errorf("rule list = %q", got)
	}

	b.handleCommand(ctx, commandMessage(1, "/rule off high_rated"))
	if got := lastMessage(t, api); !strings.Contains(got, `"high_rated" disabled`) {
		t.Errorf("reply = %q", got)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.handleCommand(context.Background(), commandMessage(1, "/frobnicate"))

	if got := lastMessage(t, api); !strings.Contains(got, "Unknown command") {
		t.Errorf("reply = %q", got)
	}
}

func TestRunRejectsUnlistedUser(t *testing.T) {
	b, api, client := newTestBot(t, &config.Config{
		RatingThreshold: 7.5,
		AllowedUsers:    []int64{100},
	})

	api.updates <- tgbotapi.Update{Message: commandMessage(999, "/approve 42")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(api.messages()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no reply before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if len(client.approved) != 0 {
		t.Errorf("unlisted user approved %v", client.approved)
	}
	if got := lastMessage(t, api); got != "Access denied." {
		t.Errorf("reply = %q", got)
	}
}

func TestCallbackApprove(t *testing.T) {
	b, api, client := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 55}},
		Data:    "approve:42",
	})

	if len(client.approved) != 1 || client.approved[0] != 42 {
		t.Errorf("approved = %v, want [42]", client.approved)
	}
	if got := lastMessage(t, api); got != "Request #42 approved." {
		t.Errorf("reply = %q", got)
	}
}

func TestNotifyNewPending(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{RatingThreshold: 7.5, NotifyChatID: 77})

	b.NotifyNewPending(coordinator.NewPending{
		Count: 1,
		Items: []model.EnrichedRequest{{ID: 9, Status: model.StatusPending, Type: model.MediaMovie, Title: "Dune", RequestedBy: "alice"}},
	})

	msgs := api.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want header + item", len(msgs))
	}
	if msgs[0] != "1 new media request:" {
		t.Errorf("header = %q", msgs[0])
	}
	if !strings.Contains(msgs[1], "#9 Dune") {
		t.Errorf("item = %q", msgs[1])
	}

	// The item message carries approve/deny buttons.
	api.mu.Lock()
	itemMsg, ok := api.sent[1].(tgbotapi.MessageConfig)
	api.mu.Unlock()
	if !ok {
		t.Fatal("item is not a MessageConfig")
	}
	markup, ok := itemMsg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected reply markup: %#v", itemMsg.ReplyMarkup)
	}
	if got := *markup.InlineKeyboard[0][0].CallbackData; got != "approve:9" {
		t.Errorf("approve button data = %q", got)
	}
	if got := *markup.InlineKeyboard[0][1].CallbackData; got != "deny:9" {
		t.Errorf("deny button data = %q", got)
	}
}

func TestNotifyNewPendingDisabled(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{RatingThreshold: 7.5})

	b.NotifyNewPending(coordinator.NewPending{Count: 1, Items: []model.EnrichedRequest{{ID: 9, Title: "Dune"}}})

	if msgs := api.messages(); len(msgs) != 0 {
		t.Errorf("sent %d messages with notifications disabled", len(msgs))
	}
}
