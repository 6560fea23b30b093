// Package raffle implements the campaign engine: serial validation,
// registration, inventory import and winner draws.
package raffle

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/promoraffle/promoraffle/internal/metrics"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/notify"
	"github.com/promoraffle/promoraffle/internal/store"
	"github.com/promoraffle/promoraffle/internal/ticketcode"
)

// Defaults applied by New.
const (
	DefaultRetries           = 3
	DefaultRetryBackoff      = 50 * time.Millisecond
	DefaultImportBatchSize   = 490
	DefaultImportParallelism = 2
	DefaultNotifyLimit       = 64
	DefaultNotifyTimeout     = 10 * time.Second
)

var tracer = otel.Tracer("github.com/promoraffle/promoraffle/internal/raffle")

// Service runs campaign operations against one database.
type Service struct {
	DB *sql.DB

	// TicketPrefix is the first segment of ticket codes.
	TicketPrefix string
	// Retries is how many times a conflicting registration is retried.
	Retries      int
	RetryBackoff time.Duration

	ImportBatchSize   int
	ImportParallelism int

	// DefaultRaffleDate is reported until an admin stores one.
	DefaultRaffleDate string

	Notifier notify.Notifier
	// NotifyLimit bounds notifications in flight. Sends beyond it are dropped
	// and counted as failures.
	NotifyLimit int

	notifyOnce  sync.Once
	notifySlots chan struct{}
	notifying   sync.WaitGroup

	// Pick returns a uniform index in [0, n).
	Pick func(n int) (int, error)
	Now  func() time.Time
	// NewTicketID overrides ticket code generation.
	NewTicketID func() (string, error)
}

// New returns a Service with defaults filled in.
func New(db *sql.DB) *Service {
	return &Service{
		DB:                db,
		TicketPrefix:      ticketcode.DefaultPrefix,
		Retries:           DefaultRetries,
		RetryBackoff:      DefaultRetryBackoff,
		ImportBatchSize:   DefaultImportBatchSize,
		ImportParallelism: DefaultImportParallelism,
		Notifier:          notify.LogNotifier{},
		NotifyLimit:       DefaultNotifyLimit,
		Pick:              cryptoPick,
		Now:               time.Now,
	}
}

func cryptoPick(n int) (int, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("picking random index: %w", err)
	}
	return int(i.Int64()), nil
}

// ValidateSerial reports whether a serial can still be registered and how many
// tickets it would earn. It never writes.
func (s *Service) ValidateSerial(ctx context.Context, serial string) (*model.SerialCheck, error) {
	ctx, span := tracer.Start(ctx, "raffle.ValidateSerial")
	defer span.End()

	code := model.NormalizeSerial(serial)
	if code == "" {
		return nil, fmt.Errorf("%w: serial is required", model.ErrValidation)
	}
	span.SetAttributes(attribute.String("serial", code))

	check, err := s.validateSerial(ctx, code)
	if err != nil {
		return nil, spanError(span, err)
	}
	metrics.SerialChecks.WithLabelValues(check.Status).Inc()
	span.SetAttributes(attribute.String("status", check.Status))
	return check, nil
}

func (s *Service) validateSerial(ctx context.Context, code string) (*model.SerialCheck, error) {
	check := &model.SerialCheck{Serial: code}

	inv, err := store.GetInventoryCode(ctx, s.DB, code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		check.Status = model.SerialNotFound
		return check, nil
	}

	registered, err := store.GetParticipantBySerial(ctx, s.DB, code)
	if err != nil {
		return nil, err
	}
	if inv.Consumed || registered != nil {
		check.Status = model.SerialUsed
		return check, nil
	}

	product, err := store.ResolveProduct(ctx, s.DB, inv)
	if err != nil {
		return nil, err
	}
	check.Status = model.SerialAvailable
	check.ProductName = store.ProductName(product, inv)
	check.TicketMultiplier = store.TicketMultiplier(product)
	return check, nil
}

// Register runs the registration transaction, retrying on lock contention,
// then notifies in the background. A notifier failure is logged and does not
// fail the call.
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.RegistrationResult, error) {
	ctx, span := tracer.Start(ctx, "raffle.Register")
	defer span.End()

	res, err := s.register(ctx, reg)
	if err != nil {
		metrics.Registrations.WithLabelValues(model.Kind(err)).Inc()
		return nil, spanError(span, err)
	}

	metrics.Registrations.WithLabelValues("ok").Inc()
	metrics.TicketsIssued.Add(float64(len(res.TicketIDs)))
	span.SetAttributes(
		attribute.String("participant", res.ParticipantID),
		attribute.Int("tickets", len(res.TicketIDs)),
	)
	slog.Info("registration committed",
		"participant", res.ParticipantID,
		"serial", res.Serial,
		"product", res.ProductModel,
		"tickets", len(res.TicketIDs),
	)

	s.notify(ctx, reg, res)
	return res, nil
}

func (s *Service) register(ctx context.Context, reg model.Registration) (*model.RegistrationResult, error) {
	opts := store.RegisterOptions{NewTicketID: s.NewTicketID, Now: s.Now}
	if opts.NewTicketID == nil {
		prefix := s.TicketPrefix
		opts.NewTicketID = func() (string, error) {
			return ticketcode.Generate(prefix, s.Now().Year())
		}
	}

	for attempt := 0; ; attempt++ {
		res, err := store.Register(ctx, s.DB, reg, opts)
		if err == nil || !errors.Is(err, model.ErrConflict) || attempt >= s.Retries {
			return res, err
		}

		metrics.RegisterRetries.Inc()
		slog.Warn("registration conflict, retrying", "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.RetryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (s *Service) notify(ctx context.Context, reg model.Registration, res *model.RegistrationResult) {
	if s.Notifier == nil {
		return
	}

	s.notifyOnce.Do(func() {
		s.notifySlots = make(chan struct{}, max(s.NotifyLimit, 1))
	})
	select {
	case s.notifySlots <- struct{}{}:
	default:
		metrics.NotifyFailures.Inc()
		slog.Error("notification dropped, too many in flight", "participant", res.ParticipantID)
		return
	}

	nctx := context.WithoutCancel(ctx)
	s.notifying.Add(1)
	go func() {
		defer s.notifying.Done()
		defer func() { <-s.notifySlots }()
		s.send(nctx, reg, res)
	}()
}

func (s *Service) send(ctx context.Context, reg model.Registration, res *model.RegistrationResult) {
	ctx, cancel := context.WithTimeout(ctx, DefaultNotifyTimeout)
	defer cancel()

	raffleDate, err := s.RaffleDate(ctx)
	if err != nil {
		slog.Warn("reading raffle date for notification", "error", err)
	}

	ev := notify.RegistrationEvent{
		ParticipantID: res.ParticipantID,
		FullName:      reg.FullName,
		Email:         reg.Email,
		Phone:         reg.Phone,
		ProductModel:  res.ProductModel,
		Serial:        res.Serial,
		TicketIDs:     res.TicketIDs,
		RaffleDate:    raffleDate,
		RegisteredAt:  s.Now().UTC(),
	}

	if err := s.Notifier.Notify(ctx, ev); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Error("notification failed", "participant", res.ParticipantID, "error", err)
	}
}

// WaitNotifications blocks until notifications in flight finish or ctx ends.
func (s *Service) WaitNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifying.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DrawRequest parameterizes a draw.
type DrawRequest struct {
	DrawnBy string `json:"-"`
	// ExcludePreviousWinners leaves tickets that already won out of the pool.
	ExcludePreviousWinners bool `json:"exclude_previous_winners"`
}

// DrawWinner picks one ticket uniformly at random and records its holder as a
// winner. Tickets and participants are never modified.
func (s *Service) DrawWinner(ctx context.Context, req DrawRequest) (*model.Winner, error) {
	ctx, span := tracer.Start(ctx, "raffle.DrawWinner",
		trace.WithAttributes(attribute.Bool("exclude_previous_winners", req.ExcludePreviousWinners)))
	defer span.End()

	if req.DrawnBy == "" {
		return nil, spanError(span, fmt.Errorf("%w: drawn_by is required", model.ErrValidation))
	}

	ids, err := store.ListTicketIDs(ctx, s.DB, req.ExcludePreviousWinners)
	if err != nil {
		return nil, spanError(span, err)
	}
	if len(ids) == 0 {
		return nil, spanError(span, model.ErrNoTickets)
	}

	i, err := s.Pick(len(ids))
	if err != nil {
		return nil, spanError(span, err)
	}
	if i < 0 || i >= len(ids) {
		return nil, spanError(span, fmt.Errorf("picked index %d outside pool of %d", i, len(ids)))
	}

	w, err := store.RecordWinner(ctx, s.DB, ids[i], req.DrawnBy, s.Now())
	if err != nil {
		return nil, spanError(span, err)
	}

	metrics.Draws.Inc()
	span.SetAttributes(attribute.String("ticket", w.TicketID), attribute.Int("pool", len(ids)))
	slog.Info("winner drawn",
		"ticket", w.TicketID,
		"participant", w.ParticipantID,
		"pool", len(ids),
		"times_drawn", w.TimesDrawn,
		"drawn_by", req.DrawnBy,
	)
	return w, nil
}

// RaffleDate returns the stored raffle date, or the configured default.
func (s *Service) RaffleDate(ctx context.Context) (string, error) {
	v, ok, err := store.GetSetting(ctx, s.DB, store.SettingRaffleDate)
	if err != nil {
		return s.DefaultRaffleDate, err
	}
	if !ok {
		return s.DefaultRaffleDate, nil
	}
	return v, nil
}

// SetRaffleDate stores the raffle date as YYYY-MM-DD.
func (s *Service) SetRaffleDate(ctx context.Context, date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: raffle date must be YYYY-MM-DD", model.ErrValidation)
	}
	return store.SetSetting(ctx, s.DB, store.SettingRaffleDate, date)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, model.Kind(err))
	return err
}
