package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
)

var (
	// ErrScheduleNotFound 排班不存在。
	ErrScheduleNotFound = errors.New("排班不存在")
	// ErrScheduleAccountExists 账号已有排班记录。
	ErrScheduleAccountExists = errors.New("账号已存在排班")
	// ErrScheduleEmailExists 邮箱已有排班记录。
	ErrScheduleEmailExists = errors.New("邮箱已存在排班")
	// ErrInvalidShiftTime 班次时间非法。
	ErrInvalidShiftTime = errors.New("班次时间非法")
	// ErrInvalidDayOfWeek 星期编号非法。
	ErrInvalidDayOfWeek = errors.New("星期编号非法,合法范围 0(周日)到 6(周六)")
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// 单个班次的时长约束(分钟)。
const (
	minShiftMinutes = 60
	maxShiftMinutes = 720
)

// CreateScheduleInput 建立排班的入参。
type CreateScheduleInput struct {
	AccountID     string
	AssigneeName  string
	AssigneeEmail string
	DepartmentID  *string
	Shifts        model.ShiftMap
	Limits        model.Limits
	CreatedBy     string
}

// WorkScheduleService 成员周排班的业务入口。
type WorkScheduleService struct {
	repo   repository.WorkScheduleRepository
	logger *zap.Logger
}

// NewWorkScheduleService 创建排班服务。
func NewWorkScheduleService(repo repository.WorkScheduleRepository, logger *zap.Logger) *WorkScheduleService {
	return &WorkScheduleService{repo: repo, logger: logger}
}

// validateShift 校验单个班次窗口:HH:MM 格式、起止顺序与时长区间。
func validateShift(shift model.ShiftWindow) error {
	if !timeOfDayPattern.MatchString(shift.StartTime) || !timeOfDayPattern.MatchString(shift.EndTime) {
		return fmt.Errorf("%w: 时间必须是 HH:MM 格式", ErrInvalidShiftTime)
	}
	start, _ := time.Parse("15:04", shift.StartTime)
	end, _ := time.Parse("15:04", shift.EndTime)
	if !end.After(start) {
		return fmt.Errorf("%w: 结束时间必须晚于开始时间", ErrInvalidShiftTime)
	}
	minutes := int(end.Sub(start).Minutes())
	if minutes < minShiftMinutes || minutes > maxShiftMinutes {
		return fmt.Errorf("%w: 班次时长须在 %d 到 %d 分钟之间", ErrInvalidShiftTime, minShiftMinutes, maxShiftMinutes)
	}
	return nil
}

func validateShiftMap(shifts model.ShiftMap) error {
	for day, shift := range shifts {
		if day < 0 || day > 6 {
			return ErrInvalidDayOfWeek
		}
		if err := validateShift(shift); err != nil {
			return fmt.Errorf("星期 %d: %w", day, err)
		}
	}
	return nil
}

// Create 建立成员排班,账号与邮箱全局唯一。
func (s *WorkScheduleService) Create(ctx context.Context, input CreateScheduleInput) (*model.WorkSchedule, error) {
	if _, err := s.repo.GetByAccountID(ctx, input.AccountID); err == nil {
		return nil, ErrScheduleAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, input.AssigneeEmail); err == nil {
		return nil, ErrScheduleEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := validateShiftMap(input.Shifts); err != nil {
		return nil, err
	}

	name := input.AssigneeName
	if name == "" {
		name = "未知员工"
	}
	schedule := &model.WorkSchedule{
		ScheduleID:    uuid.NewString(),
		AccountID:     input.AccountID,
		AssigneeName:  name,
		AssigneeEmail: input.AssigneeEmail,
		DepartmentID:  input.DepartmentID,
		Shifts:        input.Shifts,
		IsActive:      true,
		Limits:        input.Limits,
	}
	schedule.CreatedBy = input.CreatedBy
	schedule.UpdatedBy = input.CreatedBy

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}
	s.logger.Info("排班已建立",
		zap.String("schedule_id", schedule.ScheduleID),
		zap.String("account_id", schedule.AccountID))
	return schedule, nil
}

// Get 按主键读取排班。
func (s *WorkScheduleService) Get(ctx context.Context, id string) (*model.WorkSchedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	return schedule, err
}

// GetByAccountID 按账号读取排班。
func (s *WorkScheduleService) GetByAccountID(ctx context.Context, accountID string) (*model.WorkSchedule, error) {
	schedule, err := s.repo.GetByAccountID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	return schedule, err
}

// List 列出排班,onlyActive 为 true 时仅返回启用的记录。
func (s *WorkScheduleService) List(ctx context.Context, onlyActive bool) ([]model.WorkSchedule, error) {
	return s.repo.List(ctx, onlyActive)
}

// UpdateScheduleInput 整体更新排班的入参,nil 字段表示不改动。
type UpdateScheduleInput struct {
	AssigneeName *string
	DepartmentID *string
	Shifts       model.ShiftMap // nil 表示不替换
	UpdatedBy    string
}

// Update 整体更新排班。Shifts 非 nil 时整张周表被替换。
func (s *WorkScheduleService) Update(ctx context.Context, id string, input UpdateScheduleInput) (*model.WorkSchedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.AssigneeName != nil {
		schedule.AssigneeName = *input.AssigneeName
	}
	if input.DepartmentID != nil {
		schedule.DepartmentID = input.DepartmentID
	}
	if input.Shifts != nil {
		if err := validateShiftMap(input.Shifts); err != nil {
			return nil, err
		}
		schedule.Shifts = input.Shifts
	}
	schedule.UpdatedBy = input.UpdatedBy
	schedule.Version++
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// UpdateShiftForDay 替换某一天的班次窗口。
func (s *WorkScheduleService) UpdateShiftForDay(ctx context.Context, id string, dayOfWeek int, shift model.ShiftWindow, updatedBy string) (*model.WorkSchedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if err := validateShift(shift); err != nil {
		return nil, err
	}

	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.Shifts == nil {
		schedule.Shifts = make(model.ShiftMap)
	}
	schedule.Shifts[dayOfWeek] = shift
	schedule.UpdatedBy = updatedBy
	schedule.Version++
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// RemoveShiftForDay 删除某一天的班次,当天变为休息日。
func (s *WorkScheduleService) RemoveShiftForDay(ctx context.Context, id string, dayOfWeek int, updatedBy string) (*model.WorkSchedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(schedule.Shifts, dayOfWeek)
	schedule.UpdatedBy = updatedBy
	schedule.Version++
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// UpdateLimits 更新成员个人负载上限。
func (s *WorkScheduleService) UpdateLimits(ctx context.Context, id string, limits model.Limits, updatedBy string) (*model.WorkSchedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Limits = limits
	schedule.UpdatedBy = updatedBy
	schedule.Version++
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// SetActive 切换排班启用状态,停用后不再参与值班池同步。
func (s *WorkScheduleService) SetActive(ctx context.Context, id string, active bool, updatedBy string) (*model.WorkSchedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.IsActive = active
	schedule.UpdatedBy = updatedBy
	schedule.Version++
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// GetWorkingAssigneesForDay 列出某个星期几排了班的成员。
func (s *WorkScheduleService) GetWorkingAssigneesForDay(ctx context.Context, dayOfWeek int, opts repository.DayQueryOptions) ([]model.WorkSchedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	return s.repo.QueryByDayOfWeek(ctx, dayOfWeek, opts)
}

// Delete 软删除排班。
func (s *WorkScheduleService) Delete(ctx context.Context, id, deletedBy string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, deletedBy)
}
