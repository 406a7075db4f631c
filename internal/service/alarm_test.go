package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
)

func mustParseID(t *testing.T, s string) int64 {
	t.Helper()
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		t.Fatalf("parse id %q: %v", s, err)
	}
	return id
}

func TestCreateAlarmValidation(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	u := seedUser(t, st, 1, "alarms@example.com")
	svc := NewAlarmService(st)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.CreateAlarmRequest
		wantErr error
	}{
		{name: "valid", req: dto.CreateAlarmRequest{AlarmTime: "06:45", Timezone: "UTC"}},
		{name: "valid with seconds", req: dto.CreateAlarmRequest{AlarmTime: "06:45:30", Timezone: "UTC"}},
		{name: "bad time", req: dto.CreateAlarmRequest{AlarmTime: "25:00", Timezone: "UTC"}, wantErr: pkgerrors.AlarmTimeInvalid},
		{name: "bad timezone", req: dto.CreateAlarmRequest{AlarmTime: "06:45", Timezone: "Mars/Olympus"}, wantErr: pkgerrors.TimezoneInvalid},
		{name: "negative penalty", req: dto.CreateAlarmRequest{AlarmTime: "06:45", Timezone: "UTC", PenaltyAmount: -1}, wantErr: pkgerrors.PenaltyInvalid},
		{name: "bad method", req: dto.CreateAlarmRequest{AlarmTime: "06:45", Timezone: "UTC", VerificationMethod: "yell"}, wantErr: pkgerrors.AlarmMethodInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Create(ctx, u.ID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !got.IsActive {
				t.Error("new alarm should be active")
			}
			if got.PenaltyAmount != 100 {
				t.Errorf("penalty = %d, want configured default 100", got.PenaltyAmount)
			}
		})
	}
}

func TestCreateAlarmReplacesActive(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	u := seedUser(t, st, 2, "switch@example.com")
	svc := NewAlarmService(st)
	ctx := context.Background()

	first, err := svc.Create(ctx, u.ID, dto.CreateAlarmRequest{AlarmTime: "07:00", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	_, err = svc.Create(ctx, u.ID, dto.CreateAlarmRequest{AlarmTime: "06:00", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := svc.List(ctx, u.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}
	active := 0
	for _, a := range list.Alarms {
		if a.IsActive {
			active++
			if a.ID == first.ID {
				t.Error("first alarm still active after replacement")
			}
		}
	}
	if active != 1 {
		t.Errorf("active alarms = %d, want 1", active)
	}
}

func TestAlarmOwnershipHidesOtherUsers(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	owner := seedUser(t, st, 3, "owner@example.com")
	other := seedUser(t, st, 4, "other@example.com")
	svc := NewAlarmService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, dto.CreateAlarmRequest{AlarmTime: "07:00", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	alarm, err := st.GetAlarmByPublicID(ctx, mustParseID(t, created.ID))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	if _, err := svc.Get(ctx, other.ID, alarm.PublicID); !errors.Is(err, pkgerrors.AlarmNotFound) {
		t.Errorf("cross-user get: err = %v, want AlarmNotFound", err)
	}
	if err := svc.Deactivate(ctx, other.ID, alarm.PublicID); !errors.Is(err, pkgerrors.AlarmNotFound) {
		t.Errorf("cross-user deactivate: err = %v, want AlarmNotFound", err)
	}
	if _, err := svc.Get(ctx, owner.ID, alarm.PublicID); err != nil {
		t.Errorf("owner get: %v", err)
	}
}
