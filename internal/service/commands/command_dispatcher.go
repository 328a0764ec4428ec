package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

const defaultAlertLimit = 5

// HelpText lists the supported commands.
const HelpText = `Available commands:
/summary - daily KPI digest
/alerts [n] - active alerts
/finance - revenue, expenses and top costs
/stock - warehouse levels
/refresh - recompute analytics
/expense <amount> <category> [note] - record an expense
/income <amount> <category> [note] - record income`

// Analytics is the part of the analytics service the dispatcher needs.
type Analytics interface {
	Refresh(ctx context.Context) (bool, error)
	State() models.AnalyticsState
	Invalidate(collection string)
}

// Digester builds the daily digest text.
type Digester interface {
	BuildDigest(ctx context.Context, state models.AnalyticsState, now time.Time) string
}

// RecordWriter inserts documents into the backing store.
type RecordWriter interface {
	Insert(ctx context.Context, collection string, record models.Record) (string, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	analytics Analytics
	digester  Digester
	writer    RecordWriter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher. writer may be nil, which
// disables the recording commands.
func NewService(analytics Analytics, digester Digester, writer RecordWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		analytics: analytics,
		digester:  digester,
		writer:    writer,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand answers cmd. Read commands refresh analytics when stale
// and reply from the current state.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandSummary:
		state := s.freshState(ctx)
		return s.digester.BuildDigest(ctx, state, s.now()), nil
	case models.CommandAlerts:
		limit := defaultAlertLimit
		if len(cmd.Args) > 0 {
			n, err := strconv.Atoi(cmd.Args[0])
			if err != nil || n <= 0 {
				return "", ErrInvalidArguments
			}
			limit = n
		}
		state := s.freshState(ctx)
		if !state.Ready() {
			return notReady(state), nil
		}
		return reporting.FormatAlerts(models.TopAlerts(state.Alerts, limit)), nil
	case models.CommandFinance:
		state := s.freshState(ctx)
		if !state.Ready() {
			return notReady(state), nil
		}
		message := reporting.FormatFinance(*state.Financial)
		if costs := state.Financial.CostStructure; len(costs) > 0 {
			message += "\nTop costs:"
			for i, c := range costs {
				if i == 3 {
					break
				}
				message += fmt.Sprintf("\n- %s %.2f (%.1f%%)", c.Category, c.Amount, c.Share)
			}
		}
		return message, nil
	case models.CommandStock:
		state := s.freshState(ctx)
		if !state.Ready() || state.Warehouse == nil {
			return notReady(state), nil
		}
		return reporting.FormatStock(*state.Warehouse), nil
	case models.CommandRefresh:
		refreshed, err := s.analytics.Refresh(ctx)
		if err != nil {
			return "", fmt.Errorf("refresh analytics: %w", err)
		}
		if !refreshed {
			return "Analytics were refreshed recently; showing the current snapshot.", nil
		}
		return "Analytics refreshed.", nil
	case models.CommandExpense, models.CommandIncome:
		return s.recordTransaction(ctx, cmd, sender)
	default:
		return HelpText, nil
	}
}

func (s *Service) recordTransaction(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if s.writer == nil {
		return "Recording is not available.", nil
	}

	record, err := buildTransaction(cmd, s.now().UTC(), sender)
	if err != nil {
		return "", err
	}

	id, err := s.writer.Insert(ctx, models.CollectionTransactions, record)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	s.analytics.Invalidate(models.CollectionTransactions)
	s.logger.Info("transaction recorded", zap.String("id", id), zap.String("type", record.String("type")))

	label := "Expense"
	if cmd.Type == models.CommandIncome {
		label = "Income"
	}
	return fmt.Sprintf("%s recorded: %s %.2f.", label, record.String("category"), record.Float("amount")), nil
}

// freshState refreshes when stale. A failing refresh still returns the
// last state; its error is part of it.
func (s *Service) freshState(ctx context.Context) models.AnalyticsState {
	if _, err := s.analytics.Refresh(ctx); err != nil {
		s.logger.Debug("analytics refresh failed", zap.Error(err))
	}
	return s.analytics.State()
}

func buildTransaction(cmd models.Command, now time.Time, sender string) (models.Record, error) {
	if len(cmd.Args) < 2 {
		return nil, ErrInvalidArguments
	}

	amount, ok := models.ToFloat(cmd.Args[0])
	if !ok || amount <= 0 {
		return nil, ErrInvalidArguments
	}

	txType := models.TransactionExpense
	if cmd.Type == models.CommandIncome {
		txType = models.TransactionIncome
	}

	record := models.Record{
		"type":     string(txType),
		"amount":   amount,
		"category": cmd.Args[1],
		"date":     now.Format(time.RFC3339),
		"source":   "whatsapp",
	}
	if len(cmd.Args) > 2 {
		record["description"] = strings.Join(cmd.Args[2:], " ")
	}
	if sender != "" {
		record["createdBy"] = sender
	}
	return record, nil
}

func notReady(state models.AnalyticsState) string {
	if state.Error != nil {
		return "Analytics unavailable: " + *state.Error
	}
	return "Analytics are still loading, try again shortly."
}
