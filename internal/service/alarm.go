package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"WakeOrPay/config"
	"WakeOrPay/internal/deadline"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/snowflake"
)

// AlarmService owns alarm CRUD. Creating an active alarm displaces the
// previous active one; alarms with history are deactivated, never deleted.
type AlarmService struct {
	store store.Store
}

var (
	alarmService *AlarmService
	alarmOnce    sync.Once
)

func Alarm() *AlarmService {
	alarmOnce.Do(func() {
		alarmService = NewAlarmService(defaultStore())
	})
	return alarmService
}

func NewAlarmService(st store.Store) *AlarmService {
	return &AlarmService{store: st}
}

func normalizeAlarmTime(s string) (string, error) {
	h, m, sec, err := deadline.ParseAlarmTime(s)
	if err != nil {
		return "", pkgerrors.AlarmTimeInvalid
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
}

func (s *AlarmService) Create(ctx context.Context, userID int64, req dto.CreateAlarmRequest) (*dto.AlarmData, error) {
	alarmTime, err := normalizeAlarmTime(req.AlarmTime)
	if err != nil {
		return nil, err
	}

	tz := req.Timezone
	if tz == "" {
		if u, err := s.store.GetUserByID(ctx, userID); err == nil {
			tz = u.Timezone
		} else {
			tz = "Asia/Tokyo"
		}
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, pkgerrors.TimezoneInvalid
	}

	penalty := req.PenaltyAmount
	if penalty == 0 {
		penalty = config.Cfg.DefaultPenalty
	}
	if penalty < 0 {
		return nil, pkgerrors.PenaltyInvalid
	}

	currency := req.Currency
	if currency == "" {
		currency = config.Cfg.PenaltyCurrency
	}

	method := model.VerificationMethod(req.VerificationMethod)
	if req.VerificationMethod == "" {
		method = model.VerificationMethodFace
	}
	if !model.ValidVerificationMethod(method) {
		return nil, pkgerrors.AlarmMethodInvalid
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, err
	}

	alarm := &model.Alarm{
		PublicID:           publicID,
		UserID:             userID,
		AlarmTime:          alarmTime,
		Timezone:           tz,
		IsActive:           true,
		PenaltyAmount:      penalty,
		Currency:           currency,
		VerificationMethod: method,
	}
	if err := s.store.CreateAlarm(ctx, alarm); err != nil {
		return nil, fmt.Errorf("failed to create alarm: %w", err)
	}
	return alarmToData(alarm), nil
}

func (s *AlarmService) Get(ctx context.Context, userID, publicID int64) (*dto.AlarmData, error) {
	alarm, err := s.ownedAlarm(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	return alarmToData(alarm), nil
}

func (s *AlarmService) List(ctx context.Context, userID int64) (*dto.AlarmListResponse, error) {
	alarms, err := s.store.ListAlarms(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.AlarmListResponse{
		Alarms: make([]dto.AlarmData, 0, len(alarms)),
		Total:  len(alarms),
	}
	for _, a := range alarms {
		resp.Alarms = append(resp.Alarms, *alarmToData(a))
	}
	return resp, nil
}

func (s *AlarmService) Update(ctx context.Context, userID, publicID int64, req dto.UpdateAlarmRequest) (*dto.AlarmData, error) {
	alarm, err := s.ownedAlarm(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	if req.AlarmTime != nil {
		alarmTime, err := normalizeAlarmTime(*req.AlarmTime)
		if err != nil {
			return nil, err
		}
		alarm.AlarmTime = alarmTime
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, pkgerrors.TimezoneInvalid
		}
		alarm.Timezone = *req.Timezone
	}
	if req.PenaltyAmount != nil {
		if *req.PenaltyAmount < 0 {
			return nil, pkgerrors.PenaltyInvalid
		}
		alarm.PenaltyAmount = *req.PenaltyAmount
	}
	if req.VerificationMethod != nil {
		method := model.VerificationMethod(*req.VerificationMethod)
		if !model.ValidVerificationMethod(method) {
			return nil, pkgerrors.AlarmMethodInvalid
		}
		alarm.VerificationMethod = method
	}

	// Activation goes through the store so the single-active rule holds.
	if req.IsActive != nil && *req.IsActive != alarm.IsActive {
		if *req.IsActive {
			if err := s.store.ActivateAlarm(ctx, userID, alarm.ID); err != nil {
				return nil, err
			}
		} else {
			if err := s.store.DeactivateAlarm(ctx, userID, alarm.ID); err != nil {
				return nil, err
			}
		}
		alarm.IsActive = *req.IsActive
	}

	if err := s.store.UpdateAlarm(ctx, alarm); err != nil {
		return nil, err
	}
	return alarmToData(alarm), nil
}

func (s *AlarmService) Deactivate(ctx context.Context, userID, publicID int64) error {
	alarm, err := s.ownedAlarm(ctx, userID, publicID)
	if err != nil {
		return err
	}
	return s.store.DeactivateAlarm(ctx, userID, alarm.ID)
}

func (s *AlarmService) ownedAlarm(ctx context.Context, userID, publicID int64) (*model.Alarm, error) {
	alarm, err := s.store.GetAlarmByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlarmNotFound
		}
		return nil, err
	}
	// Cross-user access reads as absence, not as forbidden.
	if alarm.UserID != userID {
		return nil, pkgerrors.AlarmNotFound
	}
	return alarm, nil
}

func alarmToData(a *model.Alarm) *dto.AlarmData {
	return &dto.AlarmData{
		ID:                 fmt.Sprintf("%d", a.PublicID),
		AlarmTime:          a.AlarmTime,
		Timezone:           a.Timezone,
		IsActive:           a.IsActive,
		PenaltyAmount:      a.PenaltyAmount,
		Currency:           a.Currency,
		VerificationMethod: string(a.VerificationMethod),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
