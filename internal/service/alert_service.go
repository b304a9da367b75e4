package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/observability"
	"github.com/guardpost/guardpost/internal/push"
	"github.com/guardpost/guardpost/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDispatchConcurrency = 8
	defaultDispatchTimeout     = 10 * time.Second
)

// DeliveryStatus is the outcome of one dispatch attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryResult records the outcome for one unique device token.
type DeliveryResult struct {
	Token  string
	Status DeliveryStatus
	Error  string
}

// AlertReport summarizes one fan-out invocation. TargetsNotified counts
// unique targets attempted, not successes; callers inspect Results.
type AlertReport struct {
	TargetsNotified int
	Results         []DeliveryResult
}

// AlertService fans an emergency alert out to every device token in the
// reporter's branch, excluding the reporter's own devices.
type AlertService struct {
	histories   repository.HistoryRepository
	users       repository.UserRepository
	authorizer  push.Authorizer
	gateway     push.Gateway
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	sendTimeout time.Duration
}

func NewAlertService(
	histories repository.HistoryRepository,
	users repository.UserRepository,
	authorizer push.Authorizer,
	gateway push.Gateway,
	concurrency int,
	logger *zap.Logger,
) (*AlertService, error) {
	if histories == nil || users == nil {
		return nil, fmt.Errorf("history and user repositories are required")
	}
	if authorizer == nil || gateway == nil {
		return nil, fmt.Errorf("push authorizer and gateway are required")
	}
	if concurrency < 1 {
		concurrency = defaultDispatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AlertService{
		histories:   histories,
		users:       users,
		authorizer:  authorizer,
		gateway:     gateway,
		logger:      logger,
		concurrency: concurrency,
		sendTimeout: defaultDispatchTimeout,
	}, nil
}

func (s *AlertService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SendEmergencyAlert marks the history record as an emergency and
// dispatches a push to each unique device token of the other users in
// the branch. Marking and dispatch are independent side effects: a
// storage failure is logged and does not block notification.
func (s *AlertService) SendEmergencyAlert(ctx context.Context, historyID uint, reportingUserID uint, branchID uint) (*AlertReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if historyID != 0 {
		if err := s.histories.MarkEmergency(ctx, historyID); err != nil {
			s.logger.Error("failed to mark history as emergency",
				zap.Uint("historyId", historyID),
				zap.Error(err),
			)
		}
	}

	users, err := s.users.FindUsersInBranch(ctx, branchID, reportingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notification targets: %w", err)
	}

	tokens := uniqueTokens(users)
	if len(tokens) == 0 {
		s.logger.Info("emergency marked but no other users to notify",
			zap.Uint("historyId", historyID),
			zap.Uint("branchId", branchID),
		)
		return &AlertReport{TargetsNotified: 0, Results: []DeliveryResult{}}, nil
	}

	credential, err := s.authorizer.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	payload := emergencyPayload(historyID)
	results := make([]DeliveryResult, len(tokens))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			results[i] = s.dispatch(groupCtx, credential, token, payload)
			// Per-target failures are recorded, never raised: one
			// target must not abort delivery to the rest.
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, result := range results {
		if result.Status == DeliverySent {
			sent++
		}
	}
	observability.WithContextLogger(s.logger, ctx).Info("emergency alert dispatched",
		zap.Uint("historyId", historyID),
		zap.Uint("branchId", branchID),
		zap.Int("targets", len(tokens)),
		zap.Int("sent", sent),
	)

	return &AlertReport{
		TargetsNotified: len(tokens),
		Results:         results,
	}, nil
}

func (s *AlertService) dispatch(ctx context.Context, credential *push.Credential, token string, payload push.Payload) DeliveryResult {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.gateway.Send(sendCtx, credential, token, payload); err != nil {
		if s.metrics != nil {
			s.metrics.IncAlertDelivery(string(DeliveryFailed))
		}
		return DeliveryResult{Token: token, Status: DeliveryFailed, Error: err.Error()}
	}

	if s.metrics != nil {
		s.metrics.IncAlertDelivery(string(DeliverySent))
	}
	return DeliveryResult{Token: token, Status: DeliverySent}
}

// uniqueTokens flattens the directory result into at most one delivery
// target per token string, first occurrence wins.
func uniqueTokens(users []domain.User) []string {
	seen := make(map[string]struct{})
	tokens := make([]string, 0)
	for _, user := range users {
		for _, deviceToken := range user.DeviceTokens {
			token := strings.TrimSpace(deviceToken.Token)
			if token == "" {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func emergencyPayload(historyID uint) push.Payload {
	id := ""
	if historyID != 0 {
		id = strconv.FormatUint(uint64(historyID), 10)
	}

	return push.Payload{
		Title: "🚨 HELP REQUESTED!",
		Body:  "A colleague needs immediate assistance!",
		Data: map[string]string{
			"type":       "emergency_help",
			"history_id": id,
			"message":    "A colleague needs help!",
		},
	}
}
