package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/nailgrow/generator"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/models"
	"github.com/cppla/nailgrow/storage"
)

type fixture struct {
	svc     *Service
	ledger  *ledger.Ledger
	prompts []string
	reply   func(prompt string) (string, error)
}

func newFixture(t *testing.T, cost int) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.ChatMessage{}))

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l := ledger.New(storage.NewMemoryStore(), ledger.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, l.Open(ctx))

	f := &fixture{ledger: l}
	f.reply = func(string) (string, error) { return "You got this.", nil }
	gen := generator.Func(func(_ context.Context, req generator.Request) (generator.Result, error) {
		f.prompts = append(f.prompts, req.Prompt)
		text, err := f.reply(req.Prompt)
		return generator.Result{Text: text}, err
	})
	f.svc = NewService(db, l, l, gen, Options{Cost: cost})
	return f
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	_, err := f.ledger.CheckIn(ctx)
	require.NoError(t, err)

	reply, err := f.svc.Send(ctx, "  I almost bit them <b>today</b> ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, reply.Message.Role)
	assert.Equal(t, "You got this.", reply.Message.Content)
	assert.Equal(t, 1, reply.NewBalance)

	require.Len(t, f.prompts, 1)
	prompt := f.prompts[0]
	assert.Contains(t, prompt, "current streak: 1 days")
	assert.Contains(t, prompt, "Estimated nail growth: 0.1mm")
	assert.Contains(t, prompt, "User: I almost bit them today")
	assert.NotContains(t, prompt, "<b>")

	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "I almost bit them today", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.NotEqual(t, history[0].UID, history[1].UID)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.Send(context.Background(), "  <script>alert(1)</script> ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, f.prompts)
}

func TestSendQuotesRecentMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Send(ctx, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	last := f.prompts[len(f.prompts)-1]
	// the last six stored messages end with the one just sent
	assert.NotContains(t, last, "message 1")
	assert.Contains(t, last, "User: message 2")
	assert.Contains(t, last, "User: message 4")
	assert.Equal(t, ContextMessages, strings.Count(last, "User: ")+strings.Count(last, "Sponsor: "))
}

func TestSendGeneratorFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.reply = func(string) (string, error) { return "", errors.New("timeout") }

	_, err := f.svc.Send(ctx, "help")
	assert.ErrorIs(t, err, ErrGenerationFailed)

	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleUser, history[0].Role)
}

func TestSendChargesAndRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	_, err := f.svc.Send(ctx, "hi")
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Empty(t, f.prompts)

	_, err = f.ledger.GrantCredits(ctx, 2)
	require.NoError(t, err)

	reply, err := f.svc.Send(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, reply.NewBalance)

	f.reply = func(string) (string, error) { return "   ", nil }
	reply, err = f.svc.Send(ctx, "hi again")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 1, reply.NewBalance)

	credits, err := f.ledger.Credits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, credits)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	_, err := f.svc.Send(ctx, "hi")
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx))
	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBuildPrompt(t *testing.T) {
	recent := []models.ChatMessage{
		{Role: models.RoleUser, Content: "hey"},
		{Role: models.RoleAssistant, Content: "hi!"},
	}
	prompt := BuildPrompt(12, recent, "hey")

	assert.Contains(t, prompt, "User's current streak: 12 days")
	assert.Contains(t, prompt, "Estimated nail growth: 1.2mm")
	assert.Contains(t, prompt, "User: hey\nSponsor: hi!")
	assert.Contains(t, prompt, `User's message: "hey"`)
	assert.True(t, strings.HasSuffix(prompt, "Respond as their sponsor:"))
}

func TestNailGrowthMM(t *testing.T) {
	assert.InDelta(t, 0.0, NailGrowthMM(0), 1e-9)
	assert.InDelta(t, 3.0, NailGrowthMM(30), 1e-9)
}
