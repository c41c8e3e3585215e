// Package chat is the sponsor conversation: user messages are stored, turned
// into a prompt carrying the current streak and answered by a generator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/nailgrow/generator"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/models"
	"github.com/cppla/nailgrow/utils"
)

// ContextMessages is the number of stored messages quoted in each prompt.
const ContextMessages = 6

var (
	// ErrEmptyMessage is returned when the sanitized message is blank.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrGenerationFailed wraps generator errors.
	ErrGenerationFailed = errors.New("sponsor reply failed")
)

// StreakReader reports the streak used to personalise replies.
type StreakReader interface {
	Status(ctx context.Context) (ledger.Status, error)
}

// Options configures a Service.
type Options struct {
	Cost   int
	Now    func() time.Time
	Logger *zap.Logger
}

// Service runs the sponsor chat.
type Service struct {
	db      *gorm.DB
	streaks StreakReader
	wallet  ledger.Wallet
	gen     generator.Generator
	cost    int
	now     func() time.Time
	log     *zap.Logger
}

// Reply is the outcome of Send.
type Reply struct {
	Message    models.ChatMessage `json:"message"`
	NewBalance int                `json:"new_balance"`
}

// NewService wires a Service. A *ledger.Ledger serves as both streaks and wallet.
func NewService(db *gorm.DB, streaks StreakReader, wallet ledger.Wallet, gen generator.Generator, opts Options) *Service {
	s := &Service{
		db:      db,
		streaks: streaks,
		wallet:  wallet,
		gen:     gen,
		cost:    opts.Cost,
		now:     opts.Now,
		log:     opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Send stores text as a user message and returns the sponsor's reply. When a
// chat cost is configured it is charged up front and refunded if no reply can
// be produced. The user message is kept either way.
func (s *Service) Send(ctx context.Context, text string) (Reply, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	st, err := s.streaks.Status(ctx)
	if err != nil {
		return Reply{}, err
	}
	balance, err := ledger.Charge(ctx, s.wallet, s.cost)
	if err != nil {
		return Reply{NewBalance: balance}, err
	}

	if _, err := s.save(ctx, models.RoleUser, text); err != nil {
		balance, err = ledger.Refund(ctx, s.wallet, s.cost, fmt.Errorf("save user message: %w", err), s.log)
		return Reply{NewBalance: balance}, err
	}
	recent, err := s.recent(ctx, ContextMessages)
	if err != nil {
		balance, err = ledger.Refund(ctx, s.wallet, s.cost, fmt.Errorf("load chat history: %w", err), s.log)
		return Reply{NewBalance: balance}, err
	}

	res, err := s.gen.Generate(ctx, generator.Request{
		Kind:   generator.KindText,
		Prompt: BuildPrompt(st.CurrentStreak, recent, text),
	})
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		s.log.Warn("sponsor reply failed", zap.Error(err))
		balance, err = ledger.Refund(ctx, s.wallet, s.cost, fmt.Errorf("%w: %w", ErrGenerationFailed, err), s.log)
		return Reply{NewBalance: balance}, err
	}

	msg, err := s.save(ctx, models.RoleAssistant, strings.TrimSpace(res.Text))
	if err != nil {
		balance, err = ledger.Refund(ctx, s.wallet, s.cost, fmt.Errorf("save reply: %w", err), s.log)
		return Reply{NewBalance: balance}, err
	}
	return Reply{Message: msg, NewBalance: balance}, nil
}

// History returns the whole conversation, oldest first.
func (s *Service) History(ctx context.Context) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// Clear deletes the conversation.
func (s *Service) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ChatMessage{}).Error
	if err == nil {
		s.log.Info("chat history cleared")
	}
	return err
}

// NailGrowthMM estimates nail growth for a streak of the given length.
func NailGrowthMM(streak int) float64 {
	return float64(streak) * 0.1
}

// BuildPrompt renders the sponsor prompt. recent is quoted oldest first.
func BuildPrompt(streak int, recent []models.ChatMessage, message string) string {
	var conv strings.Builder
	for i, m := range recent {
		if i > 0 {
			conv.WriteByte('\n')
		}
		speaker := "Sponsor"
		if m.Role == models.RoleUser {
			speaker = "User"
		}
		conv.WriteString(speaker + ": " + m.Content)
	}

	var b strings.Builder
	b.WriteString("You are a 12-step program sponsor helping someone stop biting their nails. ")
	b.WriteString("Be witty, fashionable and supportive without being overly earnest, with a little internet humour. ")
	b.WriteString("Keep responses to 2-3 sentences max.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- User's current streak: %d days\n", streak)
	fmt.Fprintf(&b, "- Estimated nail growth: %.1fmm\n", NailGrowthMM(streak))
	b.WriteString("- Recent conversation:\n")
	b.WriteString(conv.String())
	fmt.Fprintf(&b, "\n\nUser's message: %q\n\n", message)
	b.WriteString("Respond as their sponsor:")
	return b.String()
}

func (s *Service) save(ctx context.Context, role, content string) (models.ChatMessage, error) {
	msg := models.ChatMessage{
		UID:       uuid.NewString() + "-" + role,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// recent returns the last n messages, oldest first.
func (s *Service) recent(ctx context.Context, n int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(n).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
