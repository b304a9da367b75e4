package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/push"
	"github.com/guardpost/guardpost/internal/repository"
)

type fakeHistoryRepo struct {
	createFn          func(ctx context.Context, h *domain.History) error
	getByIDFn         func(ctx context.Context, id uint) (*domain.History, error)
	listFn            func(ctx context.Context) ([]domain.History, error)
	listByBranchFn    func(ctx context.Context, branchID uint) ([]domain.History, error)
	updateFn          func(ctx context.Context, id uint, patch domain.HistoryPatch) error
	markEmergencyFn   func(ctx context.Context, id uint) error
	findExpiredFn     func(ctx context.Context, cutoff time.Time) ([]domain.History, error)
	deleteExpiredFn   func(ctx context.Context, cutoff time.Time) (int64, error)
	countFn           func(ctx context.Context, filter repository.PeriodFilter) (int64, error)
	countEmergencyFn  func(ctx context.Context, filter repository.PeriodFilter) (int64, error)
	resolvedWindowsFn func(ctx context.Context, filter repository.PeriodFilter) ([]repository.ResponseWindow, error)
	findInPeriodFn    func(ctx context.Context, filter repository.PeriodFilter, limit int) ([]domain.History, error)
}

func (f *fakeHistoryRepo) Create(ctx context.Context, h *domain.History) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, h)
}

func (f *fakeHistoryRepo) GetByID(ctx context.Context, id uint) (*domain.History, error) {
	if f.getByIDFn == nil {
		return &domain.History{ID: id}, nil
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeHistoryRepo) List(ctx context.Context) ([]domain.History, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeHistoryRepo) ListByBranch(ctx context.Context, branchID uint) ([]domain.History, error) {
	if f.listByBranchFn == nil {
		return nil, nil
	}
	return f.listByBranchFn(ctx, branchID)
}

func (f *fakeHistoryRepo) Update(ctx context.Context, id uint, patch domain.HistoryPatch) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeHistoryRepo) MarkEmergency(ctx context.Context, id uint) error {
	if f.markEmergencyFn == nil {
		return nil
	}
	return f.markEmergencyFn(ctx, id)
}

func (f *fakeHistoryRepo) FindExpired(ctx context.Context, cutoff time.Time) ([]domain.History, error) {
	if f.findExpiredFn == nil {
		return nil, nil
	}
	return f.findExpiredFn(ctx, cutoff)
}

func (f *fakeHistoryRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteExpiredFn == nil {
		return 0, nil
	}
	return f.deleteExpiredFn(ctx, cutoff)
}

func (f *fakeHistoryRepo) CountInPeriod(ctx context.Context, filter repository.PeriodFilter) (int64, error) {
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(ctx, filter)
}

func (f *fakeHistoryRepo) CountEmergenciesInPeriod(ctx context.Context, filter repository.PeriodFilter) (int64, error) {
	if f.countEmergencyFn == nil {
		return 0, nil
	}
	return f.countEmergencyFn(ctx, filter)
}

func (f *fakeHistoryRepo) ResolvedWindowsInPeriod(ctx context.Context, filter repository.PeriodFilter) ([]repository.ResponseWindow, error) {
	if f.resolvedWindowsFn == nil {
		return nil, nil
	}
	return f.resolvedWindowsFn(ctx, filter)
}

func (f *fakeHistoryRepo) FindInPeriod(ctx context.Context, filter repository.PeriodFilter, limit int) ([]domain.History, error) {
	if f.findInPeriodFn == nil {
		return nil, nil
	}
	return f.findInPeriodFn(ctx, filter, limit)
}

type fakeUserRepo struct {
	findUsersInBranchFn func(ctx context.Context, branchID uint, excludeUserID uint) ([]domain.User, error)
}

func (f *fakeUserRepo) FindUsersInBranch(ctx context.Context, branchID uint, excludeUserID uint) ([]domain.User, error) {
	if f.findUsersInBranchFn == nil {
		return nil, nil
	}
	return f.findUsersInBranchFn(ctx, branchID, excludeUserID)
}

type fakeDeviceTokenRepo struct {
	createFn        func(ctx context.Context, t *domain.DeviceToken) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.DeviceToken, error)
	reassignFn      func(ctx context.Context, token string, userID uint, deviceType domain.DeviceType, lastActive time.Time) error
	deleteByTokenFn func(ctx context.Context, token string) error
}

func (f *fakeDeviceTokenRepo) Create(ctx context.Context, t *domain.DeviceToken) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, t)
}

func (f *fakeDeviceTokenRepo) GetByToken(ctx context.Context, token string) (*domain.DeviceToken, error) {
	if f.getByTokenFn == nil {
		return nil, fmt.Errorf("%w: token not found", domain.ErrNotFound)
	}
	return f.getByTokenFn(ctx, token)
}

func (f *fakeDeviceTokenRepo) Reassign(ctx context.Context, token string, userID uint, deviceType domain.DeviceType, lastActive time.Time) error {
	if f.reassignFn == nil {
		return nil
	}
	return f.reassignFn(ctx, token, userID, deviceType, lastActive)
}

func (f *fakeDeviceTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	if f.deleteByTokenFn == nil {
		return nil
	}
	return f.deleteByTokenFn(ctx, token)
}

type fakeSensorRepo struct {
	countFn       func(ctx context.Context, branchID *uint) (int64, error)
	countActiveFn func(ctx context.Context, branchID *uint) (int64, error)
}

func (f *fakeSensorRepo) Count(ctx context.Context, branchID *uint) (int64, error) {
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(ctx, branchID)
}

func (f *fakeSensorRepo) CountActive(ctx context.Context, branchID *uint) (int64, error) {
	if f.countActiveFn == nil {
		return 0, nil
	}
	return f.countActiveFn(ctx, branchID)
}

type fakeBranchRepo struct {
	listFn func(ctx context.Context) ([]domain.Branch, error)
}

func (f *fakeBranchRepo) List(ctx context.Context) ([]domain.Branch, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

type fakeFileStore struct {
	saveFn   func(ctx context.Context, name string, data []byte) (string, error)
	deleteFn func(ctx context.Context, path string) error
	existsFn func(ctx context.Context, path string) (bool, error)
}

func (f *fakeFileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if f.saveFn == nil {
		return name, nil
	}
	return f.saveFn(ctx, name, data)
}

func (f *fakeFileStore) Delete(ctx context.Context, path string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, path)
}

func (f *fakeFileStore) Exists(ctx context.Context, path string) (bool, error) {
	if f.existsFn == nil {
		return false, nil
	}
	return f.existsFn(ctx, path)
}

type fakeAuthorizer struct {
	authorizeFn func(ctx context.Context) (*push.Credential, error)
}

func (f *fakeAuthorizer) Authorize(ctx context.Context) (*push.Credential, error) {
	if f.authorizeFn == nil {
		return &push.Credential{AccessToken: "test-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return f.authorizeFn(ctx)
}

type fakeGateway struct {
	sendFn func(ctx context.Context, credential *push.Credential, token string, payload push.Payload) error
}

func (f *fakeGateway) Send(ctx context.Context, credential *push.Credential, token string, payload push.Payload) error {
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, credential, token, payload)
}
